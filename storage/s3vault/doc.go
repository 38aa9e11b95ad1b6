// Package s3vault stores vault records as one JSON object per tenant in an
// S3 bucket. Writes are conditional on the object's ETag (If-Match) or its
// absence (If-None-Match), which gives the same optimistic versioning as the
// postgres store.
package s3vault
