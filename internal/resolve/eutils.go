package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/nishad/geopool/internal/errors"
	"github.com/nishad/geopool/internal/httpclient"
)

// esearchResponse is the JSON body of an eutils esearch call
type esearchResponse struct {
	Result *esearchResult `json:"esearchresult"`
}

type esearchResult struct {
	Count  string   `json:"count"`
	IDList []string `json:"idlist"`
	Error  string   `json:"ERROR"`
}

// Eutils resolves SRA studies to GEO series through an esearch of the gds
// database on the accession field
type Eutils struct {
	client  Getter
	baseURL string
}

// OverloadMarker is what eutils puts in a 200 body when it sheds load
const OverloadMarker = "Error 503"

// overloadMarking is a Getter that can retry on a body marker
type overloadMarking interface {
	WithOverloadMarker(marker string) *httpclient.Client
}

// NewEutils creates an eutils resolver rooted at baseURL. A client that
// supports it also retries esearch responses carrying OverloadMarker.
func NewEutils(client Getter, baseURL string) *Eutils {
	if c, ok := client.(overloadMarking); ok {
		client = c.WithOverloadMarker(OverloadMarker)
	}
	return &Eutils{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

// Direction implements Resolver
func (e *Eutils) Direction() Direction { return SRAToGEO }

// Lookup implements Resolver
func (e *Eutils) Lookup(ctx context.Context, sraAccession string) (Result, error) {
	const op = errors.Op("resolve.Eutils")

	body, err := e.client.Get(ctx, e.baseURL+"/esearch.fcgi", map[string]string{
		"db":      "gds",
		"term":    sraAccession + "[ACCN]",
		"retmode": "json",
	})
	if err != nil {
		return Result{}, errors.Wrap(op, err)
	}

	var resp esearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Result{}, errors.E(op, errors.KindParse, err, sraAccession)
	}
	if resp.Result == nil {
		return Result{}, errors.E(op, errors.KindParse, sraAccession+": esearchresult missing in response")
	}
	if resp.Result.IDList == nil {
		msg := sraAccession + ": idlist missing in response"
		if resp.Result.Error != "" {
			msg += ": " + resp.Result.Error
		}
		return Result{}, errors.E(op, errors.KindParse, msg)
	}

	var matches []string
	seen := make(map[string]bool)
	for _, uid := range resp.Result.IDList {
		if seen[uid] {
			continue
		}
		seen[uid] = true
		matches = append(matches, uid)
	}

	res := fromMatches(sraAccession, matches)
	if res.Outcome == Resolved {
		gse, err := GSEFromUID(res.ID)
		if err != nil {
			return Result{}, errors.E(op, errors.KindParse, err, sraAccession)
		}
		res.ID = gse
	}
	return res, nil
}

// GSEFromUID converts a GEO DataSets uid into a GSE accession. Series uids
// carry a one-digit type prefix followed by the zero-padded series number,
// so "200012345" becomes "GSE12345".
func GSEFromUID(uid string) (string, error) {
	if len(uid) < 2 {
		return "", fmt.Errorf("gds uid %q is too short", uid)
	}
	n, err := strconv.Atoi(uid[1:])
	if err != nil {
		return "", fmt.Errorf("gds uid %q is not numeric: %w", uid, err)
	}
	if n < 0 {
		return "", fmt.Errorf("gds uid %q is negative", uid)
	}
	return "GSE" + strconv.Itoa(n), nil
}
