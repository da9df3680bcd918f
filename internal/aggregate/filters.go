package aggregate

import (
	"sort"

	"malti-dashboard/internal/model"
)

// FilterOptions collects the distinct tag values present in rows.
func FilterOptions(rows []model.MetricRow) model.FilterOptions {
	services := set{}
	nodes := set{}
	endpoints := set{}
	methods := set{}
	contexts := set{}
	for _, r := range rows {
		services.add(r.Service)
		nodes.add(r.Node)
		endpoints.add(r.Endpoint)
		methods.add(r.Method)
		contexts.add(r.Context)
	}
	return model.FilterOptions{
		Services:         services.sorted(),
		Nodes:            nodes.sorted(),
		Endpoints:        endpoints.sorted(),
		Methods:          methods.sorted(),
		Contexts:         contexts.sorted(),
		EndpointContexts: EndpointContexts(rows),
	}
}

// EndpointContexts maps each endpoint to the sorted contexts seen for it.
func EndpointContexts(rows []model.MetricRow) map[string][]string {
	byEndpoint := make(map[string]set)
	for _, r := range rows {
		if r.Endpoint == "" || r.Context == "" {
			continue
		}
		s, ok := byEndpoint[r.Endpoint]
		if !ok {
			s = set{}
			byEndpoint[r.Endpoint] = s
		}
		s.add(r.Context)
	}

	out := make(map[string][]string, len(byEndpoint))
	for endpoint, s := range byEndpoint {
		out[endpoint] = s.sorted()
	}
	return out
}

type set map[string]struct{}

func (s set) add(v string) {
	if v != "" {
		s[v] = struct{}{}
	}
}

func (s set) sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
