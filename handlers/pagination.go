package handlers

import (
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/kevinaaaquil/yamdb/apperr"
	"github.com/kevinaaaquil/yamdb/store"
)

const maxPageSize = 100

// Page is the envelope every listing endpoint returns.
type Page[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

type pageRequest struct {
	number int
	size   int
}

func (p pageRequest) window() store.Page {
	return store.Page{Offset: (p.number - 1) * p.size, Limit: p.size}
}

var errInvalidPage = apperr.New(apperr.KindNotFound, "invalid page")

// parsePage reads ?page and ?page_size. page_size is clamped to maxPageSize.
func parsePage(r *http.Request, defaultSize int) (pageRequest, error) {
	q := r.URL.Query()
	p := pageRequest{number: 1, size: defaultSize}
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return p, errInvalidPage
		}
		p.number = n
	}
	if v := q.Get("page_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.size = n
		}
	}
	if p.size > maxPageSize {
		p.size = maxPageSize
	}
	if p.size <= 0 {
		p.size = 10
	}
	// The offset must fit in an int.
	if p.number-1 > math.MaxInt/p.size {
		return p, errInvalidPage
	}
	return p, nil
}

// newPage builds the envelope. Asking for a page past the end is NOT_FOUND,
// except for the first page of an empty listing.
func newPage[T any](r *http.Request, p pageRequest, total int64, results []T) (Page[T], error) {
	if p.number > 1 && int64(p.window().Offset) >= total {
		return Page[T]{}, errInvalidPage
	}
	if results == nil {
		results = []T{}
	}
	page := Page[T]{Count: total, Results: results}
	if int64(p.number*p.size) < total {
		page.Next = pageURL(r, p.number+1)
	}
	if p.number > 1 {
		page.Previous = pageURL(r, p.number-1)
	}
	return page, nil
}

func pageURL(r *http.Request, number int) *string {
	u := url.URL{Scheme: "http", Host: r.Host, Path: r.URL.Path}
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		u.Scheme = "https"
	}
	q := r.URL.Query()
	if number == 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(number))
	}
	u.RawQuery = q.Encode()
	s := u.String()
	return &s
}
