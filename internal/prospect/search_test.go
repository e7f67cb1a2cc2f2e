package prospect

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/pipeline"
	"github.com/sells-group/prospect-cli/internal/workspace"
)

func TestDiscover_CreatesProject(t *testing.T) {
	f := newFixture(t)
	f.gen.on(pipeline.StageDiscovery, discoveryText).on(pipeline.StageDiscoveryExtract, leadsJSON)

	res, err := f.svc.Discover(context.Background(), DiscoverInput{Sector: "Carpenters", Location: "Lyon"})

	require.NoError(t, err)
	require.Len(t, res.Leads, 2)
	require.NotNil(t, res.Project)
	assert.Equal(t, workspace.DefaultSearchProjectName, res.Project.Name)
	assert.Equal(t, "Atelier Martin", res.Leads[0].Name)
	assert.Equal(t, model.LeadStatusNew, res.Leads[0].Status)

	s := f.ws.Session()
	assert.Equal(t, res.Project.ID, s.CurrentProjectID)
	assert.Equal(t, model.StepOutreach, s.CurrentStep)
	assert.Equal(t, res.Leads, s.Leads)
}

func TestDiscover_ReplacesActiveProjectLeads(t *testing.T) {
	f := newFixture(t)
	f.seed(t, newLead("old", ""))
	active := f.ws.Session().CurrentProjectID
	f.gen.on(pipeline.StageDiscovery, discoveryText).on(pipeline.StageDiscoveryExtract, leadsJSON)

	res, err := f.svc.Discover(context.Background(), DiscoverInput{Sector: "Carpenters", Location: "Lyon", HiringOnly: true})

	require.NoError(t, err)
	assert.Equal(t, active, res.Project.ID)
	assert.Len(t, f.ws.Projects(), 1)

	p, err := f.ws.Project(active)
	require.NoError(t, err)
	assert.Len(t, p.Leads, 2)
	assert.NotEqual(t, "old", p.Leads[0].ID)
}

func TestDiscover_NoResults(t *testing.T) {
	f := newFixture(t)
	f.gen.on(pipeline.StageDiscovery, "  ")

	res, err := f.svc.Discover(context.Background(), DiscoverInput{Sector: "Carpenters", Location: "Nowhere"})

	require.NoError(t, err)
	assert.Empty(t, res.Leads)
	assert.Nil(t, res.Project)
	assert.Empty(t, f.ws.Projects())
	assert.Equal(t, model.StepModeSelect, f.ws.Session().CurrentStep)
}

func TestDiscover_BackendFailure(t *testing.T) {
	f := newFixture(t)
	f.seed(t, newLead("keep", ""))
	f.gen.fail(pipeline.StageDiscovery, errors.New("boom"))

	res, err := f.svc.Discover(context.Background(), DiscoverInput{Sector: "Carpenters", Location: "Lyon"})

	require.Error(t, err)
	assert.Empty(t, res.Leads)
	assert.Equal(t, "keep", f.ws.Leads()[0].ID)
}

func TestDiscover_RequiresQuery(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Discover(context.Background(), DiscoverInput{Sector: "Carpenters"})

	require.Error(t, err)
	assert.Zero(t, f.gen.count(pipeline.StageDiscovery))
}

func TestAudit_CommitsWebProspect(t *testing.T) {
	f := newFixture(t)
	f.gen.on(pipeline.StageAudit, auditJSON)

	res, err := f.svc.Audit(context.Background(), " www.atelier-martin.fr/contact ", "en")

	require.NoError(t, err)
	require.Len(t, res.Leads, 1)
	l := res.Leads[0]
	assert.Equal(t, "audit-id-1", l.ID)
	assert.Equal(t, "atelier-martin.fr", l.Name)
	assert.Equal(t, "Web Prospect", l.Address)
	assert.Equal(t, "https://www.atelier-martin.fr/contact", l.Website)
	assert.Equal(t, model.LeadStatusNew, l.Status)
	assert.Equal(t, "Dated site.", l.Notes)
	require.NotNil(t, l.AuditReport)
	assert.Equal(t, 40, l.AuditReport.SEOScore)

	require.NotNil(t, res.Project)
	assert.Equal(t, []model.Lead{l}, f.ws.Leads())
}

func TestAudit_Failure(t *testing.T) {
	f := newFixture(t)
	f.gen.on(pipeline.StageAudit, "I cannot audit that.")

	res, err := f.svc.Audit(context.Background(), "atelier-martin.fr", "")

	require.Error(t, err)
	assert.Empty(t, res.Leads)
	assert.Empty(t, f.ws.Projects())
}

func TestAudit_InvalidURL(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Audit(context.Background(), "   ", "")

	require.Error(t, err)
	assert.Zero(t, f.gen.count(pipeline.StageAudit))
}
