package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/safing/rpsldb/database"
	"github.com/safing/rpsldb/formats/dsd"
	"github.com/safing/rpsldb/info"
	"github.com/safing/rpsldb/log"
	"github.com/safing/rpsldb/object"
)

// Endpoint describes an API Endpoint.
type Endpoint struct {
	Path        string      `json:"path"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  []Parameter `json:"parameters,omitempty"`

	// StructFunc is for returning any kind of struct.
	StructFunc StructFunc `json:"-"`
}

// Parameter describes a query parameter of an endpoint.
type Parameter struct {
	Field       string `json:"field"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

// StructFunc is for returning any kind of struct.
type StructFunc func(ar *Request) (i interface{}, err error)

// ObjectResponse is the wire representation of an object.
type ObjectResponse struct {
	ID           uint64      `json:"id" msgpack:"id" cbor:"id"`
	Class        string      `json:"class" msgpack:"class" cbor:"class"`
	Key          string      `json:"key" msgpack:"key" cbor:"key"`
	Source       string      `json:"source,omitempty" msgpack:"source,omitempty" cbor:"source,omitempty"`
	Created      *time.Time  `json:"created,omitempty" msgpack:"created,omitempty" cbor:"created,omitempty"`
	LastModified *time.Time  `json:"last_modified,omitempty" msgpack:"last_modified,omitempty" cbor:"last_modified,omitempty"`
	Fields       [][2]string `json:"fields" msgpack:"fields" cbor:"fields"`
}

// SpecResponse is the wire representation of an object identity.
type SpecResponse struct {
	Class string `json:"class" msgpack:"class" cbor:"class"`
	Key   string `json:"key" msgpack:"key" cbor:"key"`
}

func objectResponse(obj *object.Object) *ObjectResponse {
	resp := &ObjectResponse{
		ID:     obj.ID,
		Class:  obj.Class(),
		Key:    obj.Key(),
		Source: obj.Source,
		Fields: make([][2]string, 0, len(obj.Fields)),
	}
	if !obj.Created.IsZero() {
		created := obj.Created
		resp.Created = &created
	}
	if !obj.LastModified.IsZero() {
		lastModified := obj.LastModified
		resp.LastModified = &lastModified
	}
	for _, line := range obj.Fields {
		resp.Fields = append(resp.Fields, [2]string{line.Key, line.Value})
	}
	return resp
}

func specResponses(specs []object.Spec) []SpecResponse {
	resp := make([]SpecResponse, 0, len(specs))
	for _, spec := range specs {
		resp = append(resp, SpecResponse{Class: spec.Class, Key: spec.Key})
	}
	return resp
}

func (s *Server) endpoints() []*Endpoint {
	return []*Endpoint{
		{
			Path:        "/v1/object/{class}/{key:.+}",
			Name:        "Get Object",
			Description: "Returns the object identified by class and key.",
			StructFunc:  s.getObject,
		},
		{
			Path:        "/v1/route/{address:.+}",
			Name:        "Route Lookup",
			Description: "Returns the routes covering an address, most specific first.",
			Parameters: []Parameter{
				{Field: "limit", Value: "number", Description: "Return at most this many routes."},
			},
			StructFunc: s.lookupRoute,
		},
		{
			Path:        "/v1/inetnum/{address:.+}",
			Name:        "Inetnum Lookup",
			Description: "Returns the inetnums standing in relation to a network.",
			Parameters: []Parameter{
				{Field: "relation", Value: ">>, <<, >>= or <<=", Description: "Relation of the results to the queried network. Defaults to >>=."},
				{Field: "order", Value: "asc or desc", Description: "Order on prefix length. Defaults to desc."},
				{Field: "limit", Value: "number", Description: "Return at most this many inetnums."},
			},
			StructFunc: s.lookupInetnum,
		},
		{
			Path:        "/v1/as-block/{asn}",
			Name:        "AS Block Lookup",
			Description: "Returns the as-blocks containing an AS number, widest first.",
			StructFunc:  s.lookupASBlock,
		},
		{
			Path:        "/v1/domain/{name}",
			Name:        "Domain Lookup",
			Description: "Returns the domain objects of a name and its parent zones.",
			StructFunc:  s.lookupDomain,
		},
		{
			Path:        "/v1/inverse",
			Name:        "Inverse Search",
			Description: "Returns the objects referencing a value.",
			Parameters: []Parameter{
				{Field: "key", Value: "attribute key", Description: "Attribute keys to search in. Repeatable."},
				{Field: "value", Value: "referenced value", Description: "Values to search for. Repeatable."},
				{Field: "class", Value: "class", Description: "Restrict results to classes. Repeatable."},
			},
			StructFunc: s.searchInverse,
		},
		{
			Path:        "/v1/manifest",
			Name:        "Manifest",
			Description: "Returns the manifest of the registry.",
			StructFunc:  s.manifest,
		},
		{
			Path:        "/v1/version",
			Name:        "Version",
			Description: "Returns version information.",
			StructFunc: func(_ *Request) (interface{}, error) {
				return info.GetInfo(), nil
			},
		},
		{
			Path:        "/v1/endpoints",
			Name:        "Endpoints",
			Description: "Returns all endpoints of the API.",
			StructFunc: func(_ *Request) (interface{}, error) {
				return s.registered, nil
			},
		},
	}
}

// handler returns the http handler of the endpoint.
func (e *Endpoint) handler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := e.StructFunc(newRequest(r))
		if err != nil {
			status := statusOf(err)
			if status == http.StatusInternalServerError {
				log.Warningf("api: %s failed: %s", r.URL.Path, err)
			}
			s.write(w, r, &errorResponse{Status: status, Error: err.Error()}, status)
			return
		}
		s.write(w, r, result, http.StatusOK)
	}
}

func (s *Server) write(w http.ResponseWriter, r *http.Request, data interface{}, status int) {
	err := dsd.DumpToHTTPResponseWithStatus(w, r, data, s.format, status)
	if err != nil {
		log.Warningf("api: failed to write response to %s: %s", r.RemoteAddr, err)
	}
}

func (s *Server) getObject(ar *Request) (interface{}, error) {
	class, err := ar.Var("class")
	if err != nil {
		return nil, err
	}
	key, err := ar.Var("key")
	if err != nil {
		return nil, err
	}

	obj, err := s.db.Fetch(ar.Context(), class, key)
	if err != nil {
		return nil, err
	}
	return objectResponse(obj), nil
}

func (s *Server) lookupRoute(ar *Request) (interface{}, error) {
	address, err := ar.Var("address")
	if err != nil {
		return nil, err
	}
	limit, err := ar.IntQuery("limit", 0)
	if err != nil {
		return nil, err
	}

	specs, err := s.db.LookupRoute(ar.Context(), address, limit)
	if err != nil {
		return nil, err
	}
	return specResponses(specs), nil
}

func (s *Server) lookupInetnum(ar *Request) (interface{}, error) {
	address, err := ar.Var("address")
	if err != nil {
		return nil, err
	}
	relation := database.SupersetOrEqual
	if value := ar.URL.Query().Get("relation"); value != "" {
		relation, err = database.ParseRelation(value)
		if err != nil {
			return nil, err
		}
	}
	order := database.Descending
	if value := ar.URL.Query().Get("order"); value != "" {
		order, err = database.ParseOrder(value)
		if err != nil {
			return nil, err
		}
	}
	limit, err := ar.IntQuery("limit", 0)
	if err != nil {
		return nil, err
	}

	specs, err := s.db.LookupInetnum(ar.Context(), address, relation, order, limit)
	if err != nil {
		return nil, err
	}
	return specResponses(specs), nil
}

func (s *Server) lookupASBlock(ar *Request) (interface{}, error) {
	value, err := ar.Var("asn")
	if err != nil {
		return nil, err
	}
	asn, err := object.ParseASN(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errInvalidParameter, err)
	}

	specs, err := s.db.LookupASBlock(ar.Context(), asn)
	if err != nil {
		return nil, err
	}
	return specResponses(specs), nil
}

func (s *Server) lookupDomain(ar *Request) (interface{}, error) {
	name, err := ar.Var("name")
	if err != nil {
		return nil, err
	}

	specs, err := s.db.LookupDomain(ar.Context(), name)
	if err != nil {
		return nil, err
	}
	return specResponses(specs), nil
}

func (s *Server) searchInverse(ar *Request) (interface{}, error) {
	keys := ar.Query("key")
	values := ar.Query("value")
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: key", errMissingParameter)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: value", errMissingParameter)
	}

	objs, err := s.db.SearchInverse(ar.Context(), keys, values, ar.Query("class"))
	if err != nil {
		return nil, err
	}
	resp := make([]*ObjectResponse, 0, len(objs))
	for _, obj := range objs {
		resp = append(resp, objectResponse(obj))
	}
	return resp, nil
}

func (s *Server) manifest(ar *Request) (interface{}, error) {
	obj, err := s.db.Manifest(ar.Context())
	if err != nil {
		return nil, err
	}
	return objectResponse(obj), nil
}
