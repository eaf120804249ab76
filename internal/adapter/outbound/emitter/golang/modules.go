package golang

import (
	"strconv"

	"github.com/i2y/contractgen/internal/codegen"
	"github.com/i2y/contractgen/internal/domain"
)

func schemasFile(pkg string, encoded []codegen.EncodedSchema) string {
	w := codegen.NewWriter("\t")
	w.Line(header)
	w.Blank()
	w.Linef("package %s", pkg)
	w.Raw(descriptorTypes)
	w.Blank()
	w.Line("// SchemaNames lists every schema in registry order.")
	w.Line("var SchemaNames = []string{")
	w.Indent()
	for _, e := range encoded {
		w.Linef("%s,", strconv.Quote(e.Name))
	}
	w.Dedent()
	w.Line("}")
	w.Blank()
	w.Line("var schemaSources = map[string]string{")
	w.Indent()
	for _, e := range encoded {
		w.Linef("%s: %s,", strconv.Quote(e.Name), strconv.Quote(e.JSON))
	}
	w.Dedent()
	w.Line("}")
	w.Raw(schemasRuntime)
	return w.String()
}

func clientFile(pkg string, cfg domain.GenerationConfig) string {
	w := codegen.NewWriter("\t")
	w.Line(header)
	w.Blank()
	w.Linef("package %s", pkg)
	w.Raw(clientImports)
	w.Blank()
	w.Line("const (")
	w.Indent()
	w.Line("// ContractVersion is the contract version this SDK was generated from.")
	w.Linef("ContractVersion = %s", strconv.Quote(cfg.ContractVersion))
	w.Line("// SDKVersion is the version of this SDK.")
	w.Linef("SDKVersion = %s", strconv.Quote(cfg.SDKVersion))
	w.Dedent()
	w.Line(")")
	w.Raw(clientRuntime)
	return w.String()
}

func readme(defs []domain.SchemaDefinition, names map[string]string, cfg domain.GenerationConfig, m domain.PackageManifest, pkg string) string {
	w := codegen.NewWriter("")
	w.Linef("# %s", m.Name)
	w.Blank()
	w.Linef("%s. Contract version %s.", m.Description, cfg.ContractVersion)
	w.Blank()
	w.Line("## Install")
	w.Blank()
	w.Line("```sh")
	w.Linef("go get %s@v%s", m.Name, m.Version)
	w.Line("```")
	w.Blank()
	w.Line("## Usage")
	w.Blank()
	w.Line("```go")
	w.Linef("import %s %s", pkg, strconv.Quote(m.Name))
	w.Blank()
	w.Linef("client := %s.NewClient(\"https://api.example.com\")", pkg)
	if len(defs) > 0 {
		w.Linef("err := %s.ValidateByName(%s, payload)", pkg, strconv.Quote(defs[0].Name))
	}
	w.Line("```")
	w.Blank()
	w.Line("## Schemas")
	w.Blank()
	if len(defs) == 0 {
		w.Line("No schemas.")
	}
	for _, d := range defs {
		w.Linef("- `%s` (%s)", names[d.Name], categoryOf(d))
	}
	return w.String()
}

const descriptorTypes = `
import (
	"encoding/json"
	"fmt"
	"sync"
)

// Descriptor is the portable description of a schema used by ValidateJSON.
type Descriptor struct {
	Kind          string               ` + "`json:\"kind\"`" + `
	MinLength     *int                 ` + "`json:\"minLength,omitempty\"`" + `
	MaxLength     *int                 ` + "`json:\"maxLength,omitempty\"`" + `
	Format        string               ` + "`json:\"format,omitempty\"`" + `
	Min           *float64             ` + "`json:\"min,omitempty\"`" + `
	Max           *float64             ` + "`json:\"max,omitempty\"`" + `
	Integer       bool                 ` + "`json:\"integer,omitempty\"`" + `
	Items         *Descriptor          ` + "`json:\"items,omitempty\"`" + `
	Properties    []PropertyDescriptor ` + "`json:\"properties,omitempty\"`" + `
	ValueType     *Descriptor          ` + "`json:\"valueType,omitempty\"`" + `
	Values        []string             ` + "`json:\"values,omitempty\"`" + `
	Variants      []*Descriptor        ` + "`json:\"variants,omitempty\"`" + `
	Discriminator string               ` + "`json:\"discriminator,omitempty\"`" + `
	Value         json.RawMessage      ` + "`json:\"value,omitempty\"`" + `
	Inner         *Descriptor          ` + "`json:\"inner,omitempty\"`" + `
	Default       json.RawMessage      ` + "`json:\"default,omitempty\"`" + `
	Target        string               ` + "`json:\"target,omitempty\"`" + `
}

// PropertyDescriptor is one object property of a Descriptor.
type PropertyDescriptor struct {
	Name     string      ` + "`json:\"name\"`" + `
	Required bool        ` + "`json:\"required\"`" + `
	Type     *Descriptor ` + "`json:\"type\"`" + `
}
`

const schemasRuntime = `
var (
	schemasOnce sync.Once
	schemas     map[string]*Descriptor
	schemasErr  error
)

// Schemas decodes the embedded descriptors once and returns them by name.
func Schemas() (map[string]*Descriptor, error) {
	schemasOnce.Do(func() {
		decoded := make(map[string]*Descriptor, len(schemaSources))
		for name, src := range schemaSources {
			var d Descriptor
			if err := json.Unmarshal([]byte(src), &d); err != nil {
				schemasErr = fmt.Errorf("schema %s: %w", name, err)
				return
			}
			decoded[name] = &d
		}
		schemas = decoded
	})
	return schemas, schemasErr
}

// Schema returns the descriptor of the named schema.
func Schema(name string) (*Descriptor, bool) {
	all, err := Schemas()
	if err != nil {
		return nil, false
	}
	d, ok := all[name]
	return d, ok
}
`

const clientImports = `
import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)
`

const clientRuntime = `
// DefaultHeaders returns the headers sent with every request.
func DefaultHeaders() http.Header {
	h := make(http.Header)
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "application/json")
	h.Set("X-Contract-Version", ContractVersion)
	h.Set("X-SDK-Version", SDKVersion)
	return h
}

// Client is a minimal JSON-over-HTTP client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	headers    http.Header
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers.Set(key, value) }
}

// NewClient creates a client for baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		headers:    DefaultHeaders(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is returned for responses outside the 2xx range.
type APIError struct {
	StatusCode int
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// Do sends in as JSON and decodes the response into out. Either may be nil.
func (c *Client) Do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	for k, vs := range c.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Body: raw}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}
`
