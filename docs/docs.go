// Package docs exposes the OpenAPI description of the HTTP API and registers
// it with swag so echo-swagger can serve it.
package docs

import (
	_ "embed"
	"sync"

	"github.com/ghodss/yaml"
	"github.com/swaggo/swag"
)

//go:embed swagger.yaml
var swaggerYAML []byte

type document struct {
	once sync.Once
	json []byte
	err  error
}

func (d *document) load() {
	d.once.Do(func() {
		d.json, d.err = yaml.YAMLToJSON(swaggerYAML)
	})
}

// ReadDoc implements swag.Swagger.
func (d *document) ReadDoc() string {
	d.load()
	if d.err != nil {
		return "{}"
	}
	return string(d.json)
}

var doc = &document{}

// JSON returns the document converted from its YAML source.
func JSON() ([]byte, error) {
	doc.load()
	return doc.json, doc.err
}

func init() {
	swag.Register(swag.Name, doc)
}
