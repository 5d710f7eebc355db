package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/mux"
)

// Route names, used for call counts and injected failures
const (
	RouteENA        = "ena"
	RouteEBISearch  = "ebisearch"
	RouteEutils     = "eutils"
	RouteBulk       = "rnaseqer-bulk"
	RouteSingleCell = "rnaseqer-singlecell"
	RouteTracked    = "rnaseqer-tracked"
)

// Upstream is a fake of every registry geopool talks to: ENA browser,
// EBI search, NCBI eutils and RNASeq-er. Set the exported fields before
// issuing requests; they are read under a lock on every request.
type Upstream struct {
	Server *httptest.Server

	mu         sync.Mutex
	ENABody    string              // PROJECT_SET document served by ENA
	EBISearch  map[string][]string // GSE -> SRA studies
	Eutils     map[string][]string // SRA study -> GDS uids
	Bulk       string              // JSON body of getBulkRNASeqStudiesInSRA
	SingleCell string              // JSON body of getSingleCellStudies
	Tracked    string              // JSON body of getAE2ToENAMapping

	calls    map[string]int
	failures map[string][]int // queued status codes per route
	shed     map[string]int   // queued 200 overload pages per route
	queries  []string         // lookup keys in arrival order
	lastENA  map[string]string
}

// NewUpstream starts a fake upstream. It is closed when the test ends.
func NewUpstream(t *testing.T) *Upstream {
	t.Helper()

	u := &Upstream{
		EBISearch:  make(map[string][]string),
		Eutils:     make(map[string][]string),
		Bulk:       "[]",
		SingleCell: "[]",
		Tracked:    "[]",
		calls:      make(map[string]int),
		failures:   make(map[string][]int),
		shed:       make(map[string]int),
	}

	router := mux.NewRouter()
	router.HandleFunc("/ena/xml/search", u.handleENA).Methods("GET").Name(RouteENA)
	router.HandleFunc("/ebisearch/nucleotideSequences", u.handleEBISearch).Methods("GET").Name(RouteEBISearch)
	router.HandleFunc("/eutils/esearch.fcgi", u.handleEutils).Methods("GET").Name(RouteEutils)

	rnaseqer := router.PathPrefix("/rnaseqer").Subrouter()
	rnaseqer.HandleFunc("/getBulkRNASeqStudiesInSRA", u.serveJSON(func() string { return u.Bulk })).Methods("GET").Name(RouteBulk)
	rnaseqer.HandleFunc("/getSingleCellStudies", u.serveJSON(func() string { return u.SingleCell })).Methods("GET").Name(RouteSingleCell)
	rnaseqer.HandleFunc("/getAE2ToENAMapping", u.serveJSON(func() string { return u.Tracked })).Methods("GET").Name(RouteTracked)

	router.Use(u.countMiddleware)

	u.Server = httptest.NewServer(router)
	t.Cleanup(u.Server.Close)
	return u
}

// ENAURL returns the ENA browser API base URL
func (u *Upstream) ENAURL() string { return u.Server.URL + "/ena" }

// EBISearchURL returns the EBI search base URL
func (u *Upstream) EBISearchURL() string { return u.Server.URL + "/ebisearch" }

// EutilsURL returns the eutils base URL
func (u *Upstream) EutilsURL() string { return u.Server.URL + "/eutils" }

// RNASeqerURL returns the RNASeq-er API base URL
func (u *Upstream) RNASeqerURL() string { return u.Server.URL + "/rnaseqer" }

// Set runs fn with the fake's lock held, for updating fields once requests
// may be in flight.
func (u *Upstream) Set(fn func(u *Upstream)) {
	u.mu.Lock()
	defer u.mu.Unlock()
	fn(u)
}

// Fail makes the next len(statuses) requests to route answer with the given
// status codes.
func (u *Upstream) Fail(route string, statuses ...int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.failures[route] = append(u.failures[route], statuses...)
}

// Shed makes the next n requests to route answer 200 with an overload page,
// the way eutils sheds load.
func (u *Upstream) Shed(route string, n int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.shed[route] += n
}

// Calls returns how many requests route has received
func (u *Upstream) Calls(route string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.calls[route]
}

// Queries returns the resolver lookup keys received so far
func (u *Upstream) Queries() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.queries...)
}

// LastENAQuery returns the query parameters of the last ENA request
func (u *Upstream) LastENAQuery() map[string]string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.lastENA
}

func (u *Upstream) countMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := ""
		if route := mux.CurrentRoute(r); route != nil {
			name = route.GetName()
		}

		u.mu.Lock()
		u.calls[name]++
		status := 0
		if queued := u.failures[name]; len(queued) > 0 {
			status, u.failures[name] = queued[0], queued[1:]
		}
		shed := status == 0 && u.shed[name] > 0
		if shed {
			u.shed[name]--
		}
		u.mu.Unlock()

		if shed {
			fmt.Fprint(w, "<html><body><h1>Error 503</h1>Backend is overloaded</body></html>")
			return
		}
		if status != 0 {
			w.WriteHeader(status)
			fmt.Fprintf(w, "Error %d", status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (u *Upstream) handleENA(w http.ResponseWriter, r *http.Request) {
	params := make(map[string]string)
	for k, v := range r.URL.Query() {
		params[k] = v[0]
	}

	u.mu.Lock()
	u.lastENA = params
	body := u.ENABody
	u.mu.Unlock()

	if body == "" {
		body = ProjectSetXML()
	}
	w.Header().Set("Content-Type", "application/xml")
	fmt.Fprint(w, body)
}

type ebiSearchEntry struct {
	ID     string `json:"id"`
	Source string `json:"source"`
}

func (u *Upstream) handleEBISearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")

	u.mu.Lock()
	u.queries = append(u.queries, query)
	matches := u.EBISearch[query]
	u.mu.Unlock()

	// Every hit also carries the GEO series itself, which is not a match.
	entries := []ebiSearchEntry{{ID: query, Source: "geo"}}
	for _, id := range matches {
		entries = append(entries, ebiSearchEntry{ID: id, Source: "sra-study"})
	}
	if len(matches) == 0 {
		entries = []ebiSearchEntry{}
	}

	writeJSON(w, map[string]any{"hitCount": len(entries), "entries": entries})
}

func (u *Upstream) handleEutils(w http.ResponseWriter, r *http.Request) {
	term := strings.TrimSuffix(r.URL.Query().Get("term"), "[ACCN]")

	u.mu.Lock()
	u.queries = append(u.queries, term)
	uids := u.Eutils[term]
	u.mu.Unlock()

	if uids == nil {
		uids = []string{}
	}
	writeJSON(w, map[string]any{
		"header": map[string]string{"type": "esearch", "version": "0.3"},
		"esearchresult": map[string]any{
			"count":  fmt.Sprint(len(uids)),
			"idlist": uids,
		},
	})
}

func (u *Upstream) serveJSON(body func() string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		b := body()
		u.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, b)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
