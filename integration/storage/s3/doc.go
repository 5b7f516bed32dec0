// Package s3 stores credential sets as objects in Amazon S3 or an
// S3-compatible service (MinIO, Wasabi, DigitalOcean Spaces).
//
// Each principal maps to one object named after the md5 digest of the
// principal under a configurable prefix, so account names never appear in
// object keys. Reading a principal without an object returns an empty set.
//
//	store, err := s3.New(ctx, s3.Config{
//		Bucket: "voyager-credentials",
//		Region: "eu-central-1",
//		Prefix: "prod/",
//	}, s3.WithStoreOptions(credential.WithCodec(sealed)))
//	if err != nil {
//		return err
//	}
//	jar := credential.NewJar(store)
//
// Credentials come from the default AWS chain (environment, shared config,
// IAM role) unless AccessKeyID and SecretKey are both set. Endpoint and
// ForcePathStyle target compatible services.
//
// SDK failures are classified into ErrBucketNotFound, ErrAccessDenied,
// ErrServiceUnavailable, ErrRequestTimeout, ErrOperationTimeout and
// ErrOperationCanceled; check them with errors.Is.
package s3
