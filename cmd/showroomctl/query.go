package main

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/showroomdex/internal/domain/search/request"
	"github.com/kailas-cloud/showroomdex/internal/domain/search/result"
	"github.com/kailas-cloud/showroomdex/internal/domain/search/visibility"
	"github.com/kailas-cloud/showroomdex/internal/domain/showroom"
	discoveryuc "github.com/kailas-cloud/showroomdex/internal/usecase/discovery"
)

// queryFlags are shared by list, count and suggest.
type queryFlags struct {
	params []string
	uid    string
	role   string
}

func (f *queryFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&f.params, "param", "p", nil, "query parameter as key=value (repeatable)")
	cmd.Flags().StringVar(&f.uid, "uid", "", "caller uid")
	cmd.Flags().StringVar(&f.role, "role", "", "caller role (owner|admin); empty is a guest")
}

func (f *queryFlags) values() (url.Values, error) {
	v := url.Values{}
	for _, p := range f.params {
		key, val, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("param %q must be key=value", p)
		}
		v.Add(strings.TrimSpace(key), val)
	}
	return v, nil
}

func (f *queryFlags) caller() (*visibility.Caller, error) {
	switch role := visibility.Role(strings.ToLower(strings.TrimSpace(f.role))); role {
	case visibility.RoleGuest:
		return nil, nil
	case visibility.RoleOwner, visibility.RoleAdmin:
		return &visibility.Caller{UID: strings.TrimSpace(f.uid), Role: role}, nil
	default:
		return nil, fmt.Errorf("unknown role %q", f.role)
	}
}

// run parses the flags for op and hands a ready engine to fn.
func (c *cli) run(
	cmd *cobra.Command, f *queryFlags, op request.Op,
	fn func(svc *discoveryuc.Service, req *request.Request, caller *visibility.Caller) (any, error),
) error {
	values, err := f.values()
	if err != nil {
		return err
	}
	caller, err := f.caller()
	if err != nil {
		return err
	}
	req, err := request.NewParser(c.cfg.Discovery.Limits()).Parse(op, values)
	if err != nil {
		return err
	}
	return c.withBackend(cmd.Context(), func(b *backend) error {
		svc := discoveryuc.New(b.source, c.cfg.Jurisdiction.Jurisdiction(),
			discoveryuc.WithSampleSize(c.cfg.Discovery.SuggestSampleSize))
		out, err := fn(svc, req, caller)
		if err != nil {
			return err
		}
		return printJSON(cmd, out)
	})
}

type listOutput struct {
	Items      []showroom.Showroom `json:"items,omitempty"`
	Markers    []result.Marker     `json:"markers,omitempty"`
	NextCursor string              `json:"nextCursor,omitempty"`
	HasMore    bool                `json:"hasMore"`
	Paging     result.Paging       `json:"paging"`
	Reason     string              `json:"reason,omitempty"`
}

type countOutput struct {
	Total         int              `json:"total"`
	Mode          result.CountMode `json:"mode"`
	PrefixesCount int              `json:"prefixesCount"`
}

func newQueryCommands(c *cli) []*cobra.Command {
	var listFlags, countFlags, suggestFlags queryFlags

	list := &cobra.Command{
		Use:   "list",
		Short: "List one page of showrooms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd, &listFlags, request.OpList,
				func(svc *discoveryuc.Service, req *request.Request, caller *visibility.Caller) (any, error) {
					page, err := svc.List(cmd.Context(), req, caller)
					if err != nil {
						return nil, err
					}
					return listOutput{
						Items:      page.Items,
						Markers:    page.Markers,
						NextCursor: page.NextCursor,
						HasMore:    page.HasMore,
						Paging:     page.Paging,
						Reason:     page.Reason,
					}, nil
				})
		},
	}
	listFlags.bind(list)

	count := &cobra.Command{
		Use:   "count",
		Short: "Count showrooms matching the filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd, &countFlags, request.OpCount,
				func(svc *discoveryuc.Service, req *request.Request, caller *visibility.Caller) (any, error) {
					n, err := svc.Count(cmd.Context(), req, caller)
					if err != nil {
						return nil, err
					}
					return countOutput{Total: n.Total, Mode: n.Mode, PrefixesCount: n.PrefixesCount}, nil
				})
		},
	}
	countFlags.bind(count)

	suggest := &cobra.Command{
		Use:   "suggest",
		Short: "Autocomplete showroom names, cities and brands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd, &suggestFlags, request.OpSuggest,
				func(svc *discoveryuc.Service, req *request.Request, caller *visibility.Caller) (any, error) {
					return svc.Suggest(cmd.Context(), req, caller)
				})
		},
	}
	suggestFlags.bind(suggest)

	return []*cobra.Command{list, count, suggest}
}
