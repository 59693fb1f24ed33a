// Package httpform serves validator-backed forms over HTTP with chi.
//
// A Handler renders the form on GET and, on POST, decodes the urlencoded or
// multipart body by schema field, submits it and answers with the re-rendered
// form (422 when errors are displayed) or a redirect on success.
package httpform
