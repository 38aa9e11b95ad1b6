package s3vault

import "errors"

var (
	ErrInvalidConfig      = errors.New("s3vault: bucket and region are required")
	ErrFailedToLoadConfig = errors.New("s3vault: failed to load aws config")
	ErrCorruptRecord      = errors.New("s3vault: stored record cannot be decoded")
	ErrRecordTooLarge     = errors.New("s3vault: stored record exceeds size limit")
)
