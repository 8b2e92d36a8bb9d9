// Package docstore persists scraped API documents as named JSON files
// and serves load, search, and summary lookups over them.
package docstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/moma1992/smartcity-mcp/internal/catalog"
	"github.com/moma1992/smartcity-mcp/internal/errors"
	"github.com/moma1992/smartcity-mcp/internal/logger"
)

const (
	groupsDirName = "groups"
	indexFileName = "index.db"
)

// Summary is the lightweight listing entry for one document.
type Summary struct {
	Name string   `json:"name"`
	Tags []string `json:"tags,omitempty"`
}

// Index maps document identifier to its summary. Always derivable from
// the stored document set; regenerated on every save.
type Index map[string]Summary

// Grouping is the persisted membership file for one tag.
type Grouping struct {
	Tag string   `json:"tag"`
	IDs []string `json:"ids"`
}

// Store is an explicit handle over one storage directory. Construct one
// per directory; there is no process-wide instance.
type Store struct {
	dir string
	log *logger.Logger
	idx *boltIndex
}

// New opens (creating if absent) a document store rooted at dir.
func New(dir string, log *logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.Global()
	}
	if err := os.MkdirAll(filepath.Join(dir, groupsDirName), 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	idx, err := openBoltIndex(filepath.Join(dir, indexFileName))
	if err != nil {
		return nil, err
	}

	return &Store{
		dir: dir,
		log: log.WithComponent("docstore"),
		idx: idx,
	}, nil
}

// Dir returns the storage directory.
func (s *Store) Dir() string {
	return s.dir
}

// Close releases the summary index.
func (s *Store) Close() error {
	return s.idx.close()
}

// Save persists the document set and tag groupings, overwriting any
// existing files with the same names, removing document and grouping
// files that left the catalog since the previous save, and rebuilds
// the summary index. Each file is committed atomically
// (write-temp-then-rename) so a cancelled run never leaves a corrupt
// document.
func (s *Store) Save(docs []catalog.Document, groupings map[string][]string) error {
	index := make(Index, len(docs))

	for i := range docs {
		doc := &docs[i]
		if doc.ID == "" {
			return errors.NewValidationError("save", "document with empty identifier")
		}
		if err := s.writeJSON(s.docPath(doc.ID), doc); err != nil {
			return err
		}
		index[doc.ID] = Summary{Name: doc.Name, Tags: doc.Tags}
	}

	for tag, ids := range groupings {
		sorted := append([]string(nil), ids...)
		sort.Strings(sorted)
		g := Grouping{Tag: tag, IDs: sorted}
		if err := s.writeJSON(filepath.Join(s.dir, groupsDirName, tag+".json"), &g); err != nil {
			return err
		}
	}

	if err := s.removeStale(index, groupings); err != nil {
		return err
	}

	if err := s.idx.rebuild(index); err != nil {
		return fmt.Errorf("failed to rebuild summary index: %w", err)
	}

	s.log.Infof("saved %d documents, %d groupings", len(docs), len(groupings))
	return nil
}

// removeStale deletes document and grouping files from a previous save
// that are absent from the new snapshot, keeping the directory scan and
// the summary index in agreement.
func (s *Store) removeStale(index Index, groupings map[string][]string) error {
	ids, err := s.listIDs()
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, ok := index[id]; ok {
			continue
		}
		if err := os.Remove(s.docPath(id)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove stale document %q: %w", id, err)
		}
		s.log.Infof("removed stale document %q", id)
	}

	entries, err := os.ReadDir(filepath.Join(s.dir, groupsDirName))
	if err != nil {
		return fmt.Errorf("failed to list groupings: %w", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		if _, ok := groupings[strings.TrimSuffix(name, ".json")]; ok {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, groupsDirName, name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove stale grouping %q: %w", name, err)
		}
	}
	return nil
}

// Load reads one document by identifier. A missing file is a NotFound
// error; a corrupt file is a hard Parse error for that identifier.
func (s *Store) Load(id string) (*catalog.Document, error) {
	path := s.docPath(id)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError(path, fmt.Sprintf("document %q", id))
		}
		return nil, fmt.Errorf("failed to read document %q: %w", id, err)
	}

	var doc catalog.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.NewParseError(path, "document_decode", err)
	}
	return &doc, nil
}

// LoadGrouping reads the membership list for one tag.
func (s *Store) LoadGrouping(tag string) (*Grouping, error) {
	path := filepath.Join(s.dir, groupsDirName, tag+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError(path, fmt.Sprintf("grouping %q", tag))
		}
		return nil, fmt.Errorf("failed to read grouping %q: %w", tag, err)
	}

	var g Grouping
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, errors.NewParseError(path, "grouping_decode", err)
	}
	return &g, nil
}

// searchHit pairs a document with its ranking tier during search.
type searchHit struct {
	doc       catalog.Document
	nameMatch bool
}

// Search performs a case-insensitive substring match across name,
// description, attribute names, and tags of every stored document.
// Documents whose name matches rank above those matching elsewhere;
// ties break by identifier ascending. Corrupt files are skipped with a
// warning, never fatal.
func (s *Store) Search(keyword string) ([]catalog.Document, error) {
	needle := strings.ToLower(strings.TrimSpace(keyword))
	if needle == "" {
		return nil, errors.NewValidationError("search", "empty search keyword")
	}

	ids, err := s.listIDs()
	if err != nil {
		return nil, err
	}

	var hits []searchHit
	for _, id := range ids {
		doc, err := s.Load(id)
		if err != nil {
			s.log.WithError(err).Warnf("skipping unreadable document %q", id)
			continue
		}

		if strings.Contains(strings.ToLower(doc.Name), needle) {
			hits = append(hits, searchHit{doc: *doc, nameMatch: true})
			continue
		}
		if s.matchesBody(doc, needle) {
			hits = append(hits, searchHit{doc: *doc})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].nameMatch != hits[j].nameMatch {
			return hits[i].nameMatch
		}
		return hits[i].doc.ID < hits[j].doc.ID
	})

	docs := make([]catalog.Document, len(hits))
	for i, h := range hits {
		docs[i] = h.doc
	}
	return docs, nil
}

func (s *Store) matchesBody(doc *catalog.Document, needle string) bool {
	if strings.Contains(strings.ToLower(doc.Description), needle) {
		return true
	}
	for _, attr := range doc.Attributes {
		if strings.Contains(strings.ToLower(attr.Name), needle) {
			return true
		}
	}
	for _, tag := range doc.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

// ListSummary returns the identifier-to-summary index. The bbolt cache
// is preferred; a missing or empty cache falls back to scanning the
// document files, skipping corrupt ones with a warning.
func (s *Store) ListSummary() (Index, error) {
	if index, err := s.idx.load(); err == nil && index != nil {
		return index, nil
	}

	ids, err := s.listIDs()
	if err != nil {
		return nil, err
	}

	index := make(Index, len(ids))
	for _, id := range ids {
		doc, err := s.Load(id)
		if err != nil {
			s.log.WithError(err).Warnf("skipping unreadable document %q", id)
			continue
		}
		index[id] = Summary{Name: doc.Name, Tags: doc.Tags}
	}
	return index, nil
}

// listIDs returns the identifiers of all stored documents, sorted.
func (s *Store) listIDs() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list storage directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) docPath(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// writeJSON commits a JSON file atomically: marshal, write to a temp
// file in the same directory, then rename over the target.
func (s *Store) writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to commit %s: %w", filepath.Base(path), err)
	}
	return nil
}
