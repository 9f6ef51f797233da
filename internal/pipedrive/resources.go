package pipedrive

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"alfredoptarigan/team-diagnostic/internal/apperrors"
	"alfredoptarigan/team-diagnostic/internal/jsonutil"
)

// The record types name only the fields this service reads. Pipedrive returns many
// more, including account-specific custom fields, which are ignored.

type Pipeline struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	OrderNr int    `json:"order_nr"`
	Active  bool   `json:"active"`
}

type Stage struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	PipelineID      int64  `json:"pipeline_id"`
	OrderNr         int    `json:"order_nr"`
	DealProbability int    `json:"deal_probability"`
}

// Deal.OrgID arrives as a bare id on list endpoints and as an object on detail
// endpoints; some payloads name it organization_id or orgId instead. Value may be a
// number or a formatted string.
type Deal struct {
	ID             int64                  `json:"id"`
	Title          string                 `json:"title"`
	Value          jsonutil.FlexibleFloat `json:"value"`
	Currency       string                 `json:"currency"`
	Status         string                 `json:"status"`
	StageID        int64                  `json:"stage_id"`
	PipelineID     int64                  `json:"pipeline_id"`
	OrgID          jsonutil.FlexibleID    `json:"org_id"`
	OrganizationID jsonutil.FlexibleID    `json:"organization_id"`
	OrgIDCamel     jsonutil.FlexibleID    `json:"orgId"`
	OrgName        string                 `json:"org_name"`
	OwnerName      string                 `json:"owner_name"`
	AddTime        string                 `json:"add_time"`
	UpdateTime     string                 `json:"update_time"`
}

// Organization returns the first positive organization id under any of the deal's
// spellings, or zero.
func (d Deal) Organization() int64 {
	for _, id := range []jsonutil.FlexibleID{d.OrgID, d.OrganizationID, d.OrgIDCamel} {
		if id.Int64() > 0 {
			return id.Int64()
		}
	}
	return 0
}

type Organization struct {
	ID         int64               `json:"id"`
	Name       string              `json:"name"`
	OwnerID    jsonutil.FlexibleID `json:"owner_id"`
	Address    string              `json:"address"`
	AddTime    string              `json:"add_time"`
	UpdateTime string              `json:"update_time"`
}

type ContactValue struct {
	Value   string `json:"value"`
	Primary bool   `json:"primary"`
}

type Person struct {
	ID    int64          `json:"id"`
	Name  string         `json:"name"`
	Email []ContactValue `json:"email"`
	Phone []ContactValue `json:"phone"`
}

// DealFilter narrows a deal listing.
type DealFilter struct {
	PipelineID int64
	StageID    int64
	// Status is all_not_deleted, open, won or lost. Empty means Pipedrive's default.
	Status string
}

func (c *Client) Pipelines(ctx context.Context) ([]Pipeline, error) {
	var pipelines []Pipeline
	if err := c.get(ctx, "/pipelines", nil, "pipelines", &pipelines); err != nil {
		return nil, err
	}
	return pipelines, nil
}

func (c *Client) Stages(ctx context.Context, pipelineID int64) ([]Stage, error) {
	q := url.Values{}
	q.Set("pipeline_id", strconv.FormatInt(pipelineID, 10))

	var stages []Stage
	if err := c.get(ctx, "/stages", q, "stages", &stages); err != nil {
		return nil, err
	}
	return stages, nil
}

// Deals returns one page of deals.
func (c *Client) Deals(ctx context.Context, filter DealFilter, opts ListOptions) ([]Deal, error) {
	deals, _, err := c.dealsPage(ctx, filter, opts)
	return deals, err
}

func (c *Client) dealsPage(ctx context.Context, filter DealFilter, opts ListOptions) ([]Deal, *Pagination, error) {
	q := url.Values{}
	opts.apply(q)
	if filter.PipelineID > 0 {
		q.Set("pipeline_id", strconv.FormatInt(filter.PipelineID, 10))
	}
	if filter.StageID > 0 {
		q.Set("stage_id", strconv.FormatInt(filter.StageID, 10))
	}
	if filter.Status != "" {
		q.Set("status", filter.Status)
	}

	var deals []Deal
	pagination, err := c.getPage(ctx, "/deals", q, "deals", &deals)
	if err != nil {
		return nil, nil, err
	}
	return deals, pagination, nil
}

// AllDeals walks every page of the filtered deal list.
func (c *Client) AllDeals(ctx context.Context, filter DealFilter) ([]Deal, error) {
	var all []Deal
	start := 0
	for {
		deals, pagination, err := c.dealsPage(ctx, filter, ListOptions{Limit: PageSize, Start: start})
		if err != nil {
			return nil, err
		}
		all = append(all, deals...)

		if len(deals) < PageSize || (pagination != nil && !pagination.MoreItemsInCollection) {
			return all, nil
		}
		start += PageSize
	}
}

func (c *Client) Deal(ctx context.Context, dealID int64) (*Deal, error) {
	var deal Deal
	if err := c.get(ctx, fmt.Sprintf("/deals/%d", dealID), nil, "pipedrive deal", &deal); err != nil {
		return nil, err
	}
	if deal.ID == 0 {
		return nil, apperrors.NotFound("pipedrive deal")
	}
	return &deal, nil
}

func (c *Client) Organizations(ctx context.Context, opts ListOptions) ([]Organization, error) {
	q := url.Values{}
	opts.apply(q)

	var orgs []Organization
	if err := c.get(ctx, "/organizations", q, "organizations", &orgs); err != nil {
		return nil, err
	}
	return orgs, nil
}

// SearchOrganizations runs Pipedrive's term search and unwraps the result items.
func (c *Client) SearchOrganizations(ctx context.Context, term string, opts ListOptions) ([]Organization, error) {
	q := url.Values{}
	q.Set("term", term)
	opts.apply(q)

	var result struct {
		Items []struct {
			ResultScore float64      `json:"result_score"`
			Item        Organization `json:"item"`
		} `json:"items"`
	}
	if err := c.get(ctx, "/organizations/search", q, "organizations", &result); err != nil {
		return nil, err
	}

	orgs := make([]Organization, 0, len(result.Items))
	for _, item := range result.Items {
		orgs = append(orgs, item.Item)
	}
	return orgs, nil
}

func (c *Client) Organization(ctx context.Context, orgID int64) (*Organization, error) {
	var org Organization
	if err := c.get(ctx, fmt.Sprintf("/organizations/%d", orgID), nil, "pipedrive organization", &org); err != nil {
		return nil, err
	}
	if org.ID == 0 {
		return nil, apperrors.NotFound("pipedrive organization")
	}
	return &org, nil
}

func (c *Client) OrganizationDeals(ctx context.Context, orgID int64, opts ListOptions) ([]Deal, error) {
	q := url.Values{}
	opts.apply(q)

	var deals []Deal
	if err := c.get(ctx, fmt.Sprintf("/organizations/%d/deals", orgID), q, "deals", &deals); err != nil {
		return nil, err
	}
	return deals, nil
}

func (c *Client) OrganizationPersons(ctx context.Context, orgID int64, opts ListOptions) ([]Person, error) {
	q := url.Values{}
	opts.apply(q)

	var persons []Person
	if err := c.get(ctx, fmt.Sprintf("/organizations/%d/persons", orgID), q, "persons", &persons); err != nil {
		return nil, err
	}
	return persons, nil
}

// OrganizationsForPipeline collects the distinct organizations behind every deal of a
// pipeline. Organizations that cannot be fetched, usually deleted ones, are skipped.
func (c *Client) OrganizationsForPipeline(ctx context.Context, pipelineID int64, status string) ([]Organization, error) {
	if status == "" {
		status = "all_not_deleted"
	}
	deals, err := c.AllDeals(ctx, DealFilter{PipelineID: pipelineID, Status: status})
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]struct{})
	var orgIDs []int64
	for _, d := range deals {
		id := d.Organization()
		if id <= 0 {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		orgIDs = append(orgIDs, id)
	}

	orgs := make([]Organization, 0, len(orgIDs))
	var failed []int64
	for _, id := range orgIDs {
		org, err := c.Organization(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			failed = append(failed, id)
			continue
		}
		orgs = append(orgs, *org)
	}

	c.logger.Info("Collected pipeline organizations",
		zap.Int64("pipeline_id", pipelineID),
		zap.Int("deals", len(deals)),
		zap.Int("organizations", len(orgs)),
		zap.Int64s("failed_ids", failed),
	)
	return orgs, nil
}
