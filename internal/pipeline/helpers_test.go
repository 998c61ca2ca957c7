package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/couchcryptid/moment-tensor-etl/internal/domain"
	"github.com/couchcryptid/moment-tensor-etl/internal/observability"
	"github.com/couchcryptid/moment-tensor-etl/internal/storage"
)

const testAlertBase = "http://geofon.example.org/geofon/alerts"

var testEpoch = time.Date(2011, time.January, 1, 0, 0, 0, 0, time.UTC)

func newTestMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

// bulletin renders a standard-layout bulletin for event id at the given
// yy/mm/dd hh:mm:ss.ss origin time.
func bulletin(id, origin string) string {
	return fmt.Sprintf(`GFZ Event %s
%s
Solomon Islands
Epicenter: -8.96 157.19
MW 5.6

GFZ MOMENT TENSOR SOLUTION
Depth  10         No. of sta: 38
Moment Tensor;   Scale 10**16 Nm
  Mrr= 0.94       Mtt=-0.38
  Mpp=-0.56       Mrt= 0.12
  Mrp= 0.33       Mtp=-0.71
`, id, origin)
}

func catalogPage(ids ...string) string {
	page := "<html><body><table>\n"
	for _, id := range ids {
		page += fmt.Sprintf("<tr><td><a href=\"%s/%s/mt.txt\">MT</a></td></tr>\n", testAlertBase, id)
	}
	return page + "</table></body></html>\n"
}

// fakeCatalog serves a fixed catalog page and bulletins keyed by URL.
type fakeCatalog struct {
	mu         sync.Mutex
	page       string
	catalogErr error
	docs       map[domain.DocumentReference]string
	docErr     map[domain.DocumentReference]error
	queries    []url.Values
	fetched    []domain.DocumentReference
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		docs:   map[domain.DocumentReference]string{},
		docErr: map[domain.DocumentReference]error{},
	}
}

func (f *fakeCatalog) addEvent(id, origin string) {
	f.docs[domain.DocumentReference(testAlertBase+"/"+id+"/mt.txt")] = bulletin(id, origin)
}

func (f *fakeCatalog) FetchCatalog(_ context.Context, params url.Values) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, params)
	if f.catalogErr != nil {
		return "", f.catalogErr
	}
	return f.page, nil
}

func (f *fakeCatalog) FetchDocument(ctx context.Context, ref domain.DocumentReference) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, ref)
	if err := f.docErr[ref]; err != nil {
		return nil, err
	}
	body, ok := f.docs[ref]
	if !ok {
		return nil, errors.New("404 " + string(ref))
	}
	return []byte(body), nil
}

// memStore is an in-memory document store. order fixes the listing order;
// when nil, names are listed sorted.
type memStore struct {
	mu       sync.Mutex
	files    map[string][]byte
	order    []string
	ensured  int
	listErr  error
	readErr  map[string]error
	writeErr error
}

func newMemStore() *memStore {
	return &memStore{files: map[string][]byte{}, readErr: map[string]error{}}
}

func (m *memStore) Ensure(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensured++
	return nil
}

func (m *memStore) Write(_ context.Context, name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.files[name] = append([]byte(nil), data...)
	return nil
}

func (m *memStore) Read(_ context.Context, name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.readErr[name]; err != nil {
		return nil, err
	}
	data, ok := m.files[name]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return data, nil
}

func (m *memStore) List(_ context.Context, ext string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	if m.order != nil {
		return append([]string(nil), m.order...), nil
	}
	var names []string
	for name := range m.files {
		if len(name) >= len(ext) && name[len(name)-len(ext):] == ext {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}
