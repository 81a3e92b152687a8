package tags

import (
	"fmt"
	"sort"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
)

// Catalog is an in-memory symbol index over every file the pool has tagged.
type Catalog struct {
	mu    sync.Mutex
	index bleve.Index
	// docs maps a file path to the document IDs of its tags.
	docs map[string][]string
}

type tagDocument struct {
	Name      string  `json:"name"`
	Kind      string  `json:"kind"`
	File      string  `json:"file"`
	Line      float64 `json:"line"`
	ScopeKind string  `json:"scope_kind"`
	Scope     string  `json:"scope"`
}

// NewCatalog creates an empty catalog.
func NewCatalog() (*Catalog, error) {
	bleveIndex, err := bleve.NewMemOnly(buildCatalogMapping())
	if err != nil {
		return nil, fmt.Errorf("creating symbol catalog: %w", err)
	}
	return &Catalog{
		index: bleveIndex,
		docs:  make(map[string][]string),
	}, nil
}

func buildCatalogMapping() *mapping.IndexMappingImpl {
	indexMapping := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()

	for _, field := range []string{"name", "kind", "file", "scope_kind", "scope"} {
		fieldMapping := bleve.NewKeywordFieldMapping()
		fieldMapping.Store = true
		fieldMapping.IncludeInAll = false
		docMapping.AddFieldMappingsAt(field, fieldMapping)
	}

	lineFieldMapping := bleve.NewNumericFieldMapping()
	lineFieldMapping.Store = true
	lineFieldMapping.IncludeInAll = false
	docMapping.AddFieldMappingsAt("line", lineFieldMapping)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

// Record replaces the tags stored for path.
func (c *Catalog) Record(path string, tags []Tag) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	batch := c.index.NewBatch()
	for _, id := range c.docs[path] {
		batch.Delete(id)
	}

	ids := make([]string, 0, len(tags))
	for i, tag := range tags {
		id := fmt.Sprintf("%s#%d", path, i)
		doc := tagDocument{
			Name:      tag.Name,
			Kind:      string(tag.Kind),
			File:      path,
			Line:      float64(tag.Line),
			ScopeKind: tag.ScopeKind,
			Scope:     tag.Scope,
		}
		if err := batch.Index(id, doc); err != nil {
			return fmt.Errorf("indexing tag %s in %s: %w", tag.Name, path, err)
		}
		ids = append(ids, id)
	}

	if err := c.index.Batch(batch); err != nil {
		return fmt.Errorf("recording tags for %s: %w", path, err)
	}
	if len(ids) == 0 {
		delete(c.docs, path)
	} else {
		c.docs[path] = ids
	}
	return nil
}

// Lookup returns up to limit definitions whose whole name matches the
// regular expression pattern, ordered by file and line.
func (c *Catalog) Lookup(pattern string, limit int) ([]Tag, error) {
	if limit <= 0 {
		limit = 50
	}

	nameQuery := bleve.NewRegexpQuery(pattern)
	nameQuery.SetField("name")
	prototypeQuery := bleve.NewTermQuery("p")
	prototypeQuery.SetField("kind")

	boolQuery := bleve.NewBooleanQuery()
	boolQuery.AddMust(nameQuery)
	boolQuery.AddMustNot(prototypeQuery)

	searchRequest := bleve.NewSearchRequestOptions(boolQuery, limit, 0, false)
	searchRequest.Fields = []string{"name", "kind", "file", "line", "scope_kind", "scope"}
	searchRequest.SortBy([]string{"file", "line"})

	c.mu.Lock()
	searchResults, err := c.index.Search(searchRequest)
	c.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("searching symbols: %w", err)
	}

	tags := make([]Tag, 0, len(searchResults.Hits))
	for _, hit := range searchResults.Hits {
		tag := Tag{
			Name:      stringField(hit.Fields, "name"),
			File:      stringField(hit.Fields, "file"),
			ScopeKind: stringField(hit.Fields, "scope_kind"),
			Scope:     stringField(hit.Fields, "scope"),
		}
		if kind := stringField(hit.Fields, "kind"); kind != "" {
			tag.Kind = kind[0]
		}
		if line, ok := hit.Fields["line"].(float64); ok {
			tag.Line = int(line)
		}
		tags = append(tags, tag)
	}
	sort.SliceStable(tags, func(i, j int) bool {
		if tags[i].File != tags[j].File {
			return tags[i].File < tags[j].File
		}
		return tags[i].Line < tags[j].Line
	})
	return tags, nil
}

// Files returns the number of files with recorded tags.
func (c *Catalog) Files() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.docs)
}

// Count returns the number of recorded tags.
func (c *Catalog) Count() (uint64, error) {
	return c.index.DocCount()
}

// Close releases the index.
func (c *Catalog) Close() error {
	return c.index.Close()
}

func stringField(fields map[string]interface{}, name string) string {
	value, _ := fields[name].(string)
	return value
}
