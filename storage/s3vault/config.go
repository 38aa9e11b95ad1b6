package s3vault

type Config struct {
	Bucket         string `env:"S3VAULT_BUCKET"`
	Region         string `env:"S3VAULT_REGION" envDefault:"us-east-1"`
	Prefix         string `env:"S3VAULT_PREFIX" envDefault:"vault/"`
	Endpoint       string `env:"S3VAULT_ENDPOINT"` // S3-compatible services such as MinIO
	AccessKeyID    string `env:"S3VAULT_ACCESS_KEY_ID"`
	SecretKey      string `env:"S3VAULT_SECRET_KEY"`
	ForcePathStyle bool   `env:"S3VAULT_FORCE_PATH_STYLE" envDefault:"false"`
}
