package handlers

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/team-diagnostic/internal/apperrors"
	"alfredoptarigan/team-diagnostic/internal/pipedrive"
)

// PipedriveClient is the read API the CRM routes proxy.
type PipedriveClient interface {
	Pipelines(ctx context.Context) ([]pipedrive.Pipeline, error)
	Stages(ctx context.Context, pipelineID int64) ([]pipedrive.Stage, error)
	Deals(ctx context.Context, filter pipedrive.DealFilter, opts pipedrive.ListOptions) ([]pipedrive.Deal, error)
	AllDeals(ctx context.Context, filter pipedrive.DealFilter) ([]pipedrive.Deal, error)
	Deal(ctx context.Context, dealID int64) (*pipedrive.Deal, error)
	Organizations(ctx context.Context, opts pipedrive.ListOptions) ([]pipedrive.Organization, error)
	SearchOrganizations(ctx context.Context, term string, opts pipedrive.ListOptions) ([]pipedrive.Organization, error)
	Organization(ctx context.Context, orgID int64) (*pipedrive.Organization, error)
	OrganizationDeals(ctx context.Context, orgID int64, opts pipedrive.ListOptions) ([]pipedrive.Deal, error)
	OrganizationPersons(ctx context.Context, orgID int64, opts pipedrive.ListOptions) ([]pipedrive.Person, error)
	OrganizationsForPipeline(ctx context.Context, pipelineID int64, status string) ([]pipedrive.Organization, error)
}

type PipedriveHandler struct {
	client PipedriveClient
}

func NewPipedriveHandler(client PipedriveClient) *PipedriveHandler {
	return &PipedriveHandler{client: client}
}

func listOptions(c *fiber.Ctx) (pipedrive.ListOptions, error) {
	limit, err := intQuery(c, "limit")
	if err != nil {
		return pipedrive.ListOptions{}, err
	}
	start, err := intQuery(c, "start")
	if err != nil {
		return pipedrive.ListOptions{}, err
	}
	return pipedrive.ListOptions{Limit: limit, Start: start}, nil
}

func (h *PipedriveHandler) HandlePipelines(c *fiber.Ctx) error {
	pipelines, err := h.client.Pipelines(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(pipelines)
}

func (h *PipedriveHandler) HandleStages(c *fiber.Ctx) error {
	pipelineID, err := int64Param(c, "id")
	if err != nil {
		return err
	}

	stages, err := h.client.Stages(c.UserContext(), pipelineID)
	if err != nil {
		return err
	}
	return c.JSON(stages)
}

// HandlePipelineDeals handles GET /pipedrive/pipelines/:id/deals?stage_id=&status=&limit=&start=.
// Without limit or start every page is returned.
func (h *PipedriveHandler) HandlePipelineDeals(c *fiber.Ctx) error {
	pipelineID, err := int64Param(c, "id")
	if err != nil {
		return err
	}
	filter := pipedrive.DealFilter{PipelineID: pipelineID, Status: c.Query("status")}
	if raw := c.Query("stage_id"); raw != "" {
		stageID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || stageID <= 0 {
			return apperrors.Validation("invalid stage_id", map[string]string{"stage_id": "must be a positive integer"})
		}
		filter.StageID = stageID
	}
	opts, err := listOptions(c)
	if err != nil {
		return err
	}

	var deals []pipedrive.Deal
	if opts.Limit == 0 && opts.Start == 0 {
		deals, err = h.client.AllDeals(c.UserContext(), filter)
	} else {
		deals, err = h.client.Deals(c.UserContext(), filter, opts)
	}
	if err != nil {
		return err
	}
	return c.JSON(deals)
}

// HandlePipelineCompanies handles GET /pipedrive/pipelines/:id/companies?status=
func (h *PipedriveHandler) HandlePipelineCompanies(c *fiber.Ctx) error {
	pipelineID, err := int64Param(c, "id")
	if err != nil {
		return err
	}

	orgs, err := h.client.OrganizationsForPipeline(c.UserContext(), pipelineID, c.Query("status"))
	if err != nil {
		return err
	}
	return c.JSON(orgs)
}

// HandleCompanies handles GET /pipedrive/companies?search=&limit=&start=
func (h *PipedriveHandler) HandleCompanies(c *fiber.Ctx) error {
	opts, err := listOptions(c)
	if err != nil {
		return err
	}

	var orgs []pipedrive.Organization
	if term := c.Query("search"); term != "" {
		orgs, err = h.client.SearchOrganizations(c.UserContext(), term, opts)
	} else {
		orgs, err = h.client.Organizations(c.UserContext(), opts)
	}
	if err != nil {
		return err
	}
	return c.JSON(orgs)
}

type companyDetail struct {
	Organization *pipedrive.Organization `json:"organization"`
	Deals        []pipedrive.Deal        `json:"deals,omitempty"`
	Persons      []pipedrive.Person      `json:"persons,omitempty"`
}

// HandleCompany handles GET /pipedrive/companies/:id?include_deals=&include_persons=
func (h *PipedriveHandler) HandleCompany(c *fiber.Ctx) error {
	orgID, err := int64Param(c, "id")
	if err != nil {
		return err
	}
	ctx := c.UserContext()

	org, err := h.client.Organization(ctx, orgID)
	if err != nil {
		return err
	}
	detail := companyDetail{Organization: org}

	if c.QueryBool("include_deals") {
		if detail.Deals, err = h.client.OrganizationDeals(ctx, orgID, pipedrive.ListOptions{}); err != nil {
			return err
		}
	}
	if c.QueryBool("include_persons") {
		if detail.Persons, err = h.client.OrganizationPersons(ctx, orgID, pipedrive.ListOptions{}); err != nil {
			return err
		}
	}
	return c.JSON(detail)
}

func (h *PipedriveHandler) HandleDeal(c *fiber.Ctx) error {
	dealID, err := int64Param(c, "id")
	if err != nil {
		return err
	}

	deal, err := h.client.Deal(c.UserContext(), dealID)
	if err != nil {
		return err
	}
	return c.JSON(deal)
}
