package formutil

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"

	"github.com/go-playground/form"
)

// MaxBodyBytes caps JSON action bodies.
const MaxBodyBytes = 1 << 20

var decoder = func() *form.Decoder {
	d := form.NewDecoder()
	d.SetTagName("form")
	return d
}()

// Bind decodes the request body into dst. JSON bodies use the json tags;
// urlencoded and multipart forms use the form tags.
func Bind(r *http.Request, dst any) error {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, MaxBodyBytes))
		if err := dec.Decode(dst); err != nil {
			return fmt.Errorf("decode json body: %w", err)
		}
		return nil
	}
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("parse form: %w", err)
	}
	if err := decoder.Decode(dst, r.Form); err != nil {
		return fmt.Errorf("decode form: %w", err)
	}
	return nil
}

// BindQuery decodes the URL query into dst using the form tags.
func BindQuery(r *http.Request, dst any) error {
	return decoder.Decode(dst, r.URL.Query())
}
