package xvizschema

import (
	"io/fs"

	"github.com/rs/zerolog"

	"github.com/reoring/xvizschema/i18n"
	"github.com/reoring/xvizschema/internal/compile"
	"github.com/reoring/xvizschema/schemas"
)

// DefaultMaxDepth bounds payload nesting unless WithMaxDepth says otherwise.
const DefaultMaxDepth = compile.DefaultMaxDepth

// Option configures New.
type Option func(*options)

type options struct {
	catalog        fs.FS
	catalogVersion string
	logger         zerolog.Logger
	maxDepth       int
	unknown        UnknownPolicy
	duplicates     Severity
	formats        map[string]func(string) bool
	lazy           bool
	translator     i18n.Translator
}

func defaultOptions() options {
	return options{
		catalog:        schemas.FS(),
		catalogVersion: schemas.Version,
		logger:         zerolog.Nop(),
		maxDepth:       DefaultMaxDepth,
		unknown:        UnknownAsDeclared,
		duplicates:     Error,
		translator:     i18n.New("en"),
	}
}

// WithCatalog replaces the bundled catalog. Every *.schema.json file of fsys
// becomes a schema named by its path.
func WithCatalog(fsys fs.FS) Option {
	return func(o *options) {
		o.catalog = fsys
		o.catalogVersion = ""
	}
}

// WithLogger sets the logger used for catalog, compile and rejection events.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMaxDepth sets the payload nesting ceiling. Values < 1 keep the default.
func WithMaxDepth(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxDepth = n
		}
	}
}

// WithUnknownPolicy selects how undeclared object members are treated.
func WithUnknownPolicy(p UnknownPolicy) Option {
	return func(o *options) { o.unknown = p }
}

// WithDuplicateKeys sets how ValidateJSON and ValidateReader treat repeated
// object keys. The default is Error.
func WithDuplicateKeys(s Severity) Option {
	return func(o *options) { o.duplicates = s }
}

// WithFormat registers or overrides a "format" assertion.
func WithFormat(name string, fn func(string) bool) Option {
	return func(o *options) {
		if o.formats == nil {
			o.formats = make(map[string]func(string) bool)
		}
		o.formats[name] = fn
	}
}

// WithLazyCompile defers compiling a schema until its first use. A schema
// that fails to compile is then reported as *NotFoundError with Cause set.
func WithLazyCompile() Option {
	return func(o *options) { o.lazy = true }
}

// WithLanguage selects the built-in message language ("en" or "ja").
func WithLanguage(lang string) Option {
	return func(o *options) { o.translator = i18n.New(lang) }
}

// WithTranslator installs a custom message Translator.
func WithTranslator(tr i18n.Translator) Option {
	return func(o *options) {
		if tr != nil {
			o.translator = tr
		}
	}
}
