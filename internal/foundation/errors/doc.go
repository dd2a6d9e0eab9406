// Package errors provides the classified error primitives used across webpub.
//
// A ClassifiedError carries a category (which part of the build pipeline
// failed), a severity and a retry hint, plus a small context map that ends up
// as structured log attributes. Errors are created through the fluent
// ErrorBuilder:
//
//	err := errors.WrapError(cause, errors.CategoryContent, "read content file").
//		WithContext("path", path).
//		Build()
//
// The CLIErrorAdapter turns classified errors into exit codes and
// operator-facing messages.
package errors
