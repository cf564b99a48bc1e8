package xvizschema

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/reoring/xvizschema/i18n"
	"github.com/reoring/xvizschema/internal/catalog"
	"github.com/reoring/xvizschema/internal/compile"
)

// Validator checks payloads against a schema catalog. It is immutable after
// New and safe for concurrent use.
type Validator struct {
	store      *catalog.Store
	cache      *compile.Cache
	log        zerolog.Logger
	tr         i18n.Translator
	maxDepth   int
	duplicates Severity
}

// New loads the catalog, verifies every $ref and, unless WithLazyCompile is
// given, compiles every schema.
func New(opts ...Option) (*Validator, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	store, err := catalog.Load(o.catalog)
	if err != nil {
		return nil, fmt.Errorf("xviz: load catalog: %w", err)
	}

	formats := compile.DefaultFormats()
	for name, fn := range o.formats {
		formats[name] = fn
	}
	copts := compile.Options{Formats: formats}
	if o.unknown == UnknownStrict {
		copts.Unknown = compile.UnknownStrict
	}

	v := &Validator{
		store:      store,
		log:        o.logger,
		tr:         o.translator,
		maxDepth:   o.maxDepth,
		duplicates: o.duplicates,
	}
	v.cache = compile.NewCache(compile.New(store, copts), v.logCompile)

	if !o.lazy {
		for _, id := range store.IDs() {
			if _, err := v.cache.Get(id); err != nil {
				return nil, fmt.Errorf("xviz: compile %s: %w", id, err)
			}
		}
	}

	ev := v.log.Info().Int("schemas", store.Count()).Bool("lazy", o.lazy)
	if o.catalogVersion != "" {
		ev = ev.Str("version", o.catalogVersion)
	}
	ev.Msg("schema catalog loaded")
	return v, nil
}

// MustNew is like New but panics on error.
func MustNew(opts ...Option) *Validator {
	v, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return v
}

func (v *Validator) logCompile(id string, took time.Duration, err error) {
	if err != nil {
		v.log.Error().Err(err).Str("schema", id).Msg("schema compile failed")
		return
	}
	v.log.Debug().Str("schema", id).Dur("took", took).Msg("schema compiled")
}

// SchemaCount returns the number of documents in the catalog. It is positive
// for every constructed Validator.
func (v *Validator) SchemaCount() int { return v.store.Count() }

// HasSchema reports whether name resolves to a catalog document.
func (v *Validator) HasSchema(name Name) bool { return v.store.Has(string(name)) }

// SchemaNames lists the canonical names of all documents in ascending order.
func (v *Validator) SchemaNames() []Name {
	ids := v.store.IDs()
	out := make([]Name, len(ids))
	for i, id := range ids {
		out[i] = Name(id)
	}
	return out
}
