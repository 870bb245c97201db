package service_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rgdevment/spamguard/internal/apperr"
	"github.com/rgdevment/spamguard/internal/domain"
	"github.com/rgdevment/spamguard/internal/phone"
	"github.com/rgdevment/spamguard/internal/service"
)

// stubSource says every number is clean, except the ones it fails on.
type stubSource struct{ failOn string }

func (stubSource) Name() string { return "stub" }

func (s stubSource) Lookup(_ context.Context, num *phone.Number) (*domain.CallerInfo, error) {
	if num.E164 == s.failOn {
		return nil, errBoom
	}
	return &domain.CallerInfo{PhoneNumber: num.E164, CountryCode: num.Region, Name: "Stub Caller", SpamScore: 3, Source: "stub"}, nil
}

func TestLookupMergesCommunity(t *testing.T) {
	ctx := context.Background()
	reports := newReportService(NewMockRepo(), nil, nil)
	for _, u := range []string{"a", "b", "c", "d"} {
		_, err := reports.IngestReport(ctx, u, service.ReportInput{PhoneNumber: "+905012345678", Category: "betting"})
		require.NoError(t, err)
	}
	svc := service.NewLookupService(stubSource{}, reports, 2, zerolog.Nop())

	reported, err := svc.Lookup(ctx, service.LookupInput{PhoneNumber: "+905012345678"})
	require.NoError(t, err)
	assert.True(t, reported.IsSpam)
	assert.Equal(t, 40, reported.SpamScore)
	require.NotNil(t, reported.CommunityReports)
	assert.Equal(t, 4, *reported.CommunityReports)
	assert.Equal(t, "Stub Caller", reported.Name)

	clean, err := svc.Lookup(ctx, service.LookupInput{PhoneNumber: "2015550123", CountryCode: "US"})
	require.NoError(t, err)
	assert.Equal(t, "+12015550123", clean.PhoneNumber)
	assert.False(t, clean.IsSpam)
	assert.Equal(t, 3, clean.SpamScore)
	assert.Nil(t, clean.CommunityReports)
}

func TestLookupErrors(t *testing.T) {
	reports := newReportService(NewMockRepo(), nil, nil)
	svc := service.NewLookupService(stubSource{failOn: "+12015550123"}, reports, 2, zerolog.Nop())

	_, err := svc.Lookup(context.Background(), service.LookupInput{PhoneNumber: "12345"})
	assert.True(t, apperr.Is(err, apperr.CodeInvalidInput))
}

func TestLookupFallsBackWhenSourceFails(t *testing.T) {
	ctx := context.Background()
	reports := newReportService(NewMockRepo(), nil, nil)
	for _, u := range []string{"a", "b", "c"} {
		_, err := reports.IngestReport(ctx, u, service.ReportInput{PhoneNumber: "+905012345678", Category: "scam"})
		require.NoError(t, err)
	}
	svc := service.NewLookupService(stubSource{failOn: "+905012345678"}, reports, 2, zerolog.Nop())

	info, err := svc.Lookup(ctx, service.LookupInput{PhoneNumber: "+905012345678"})
	require.NoError(t, err)
	assert.Equal(t, "offline", info.Source)
	assert.Equal(t, "TR", info.CountryCode)
	assert.Empty(t, info.Name)
	assert.True(t, info.IsSpam)
	assert.Equal(t, 30, info.SpamScore)
	require.NotNil(t, info.CommunityReports)
	assert.Equal(t, 3, *info.CommunityReports)
}

func TestLookupBulkDropsFailures(t *testing.T) {
	reports := newReportService(NewMockRepo(), nil, nil)
	svc := service.NewLookupService(stubSource{failOn: "+12015550123"}, reports, 2, zerolog.Nop())

	out, err := svc.LookupBulk(context.Background(), []service.LookupInput{
		{PhoneNumber: "+905012345678"},
		{PhoneNumber: "+12015550123"},
		{PhoneNumber: "not a phone"},
		{PhoneNumber: "2015550124", CountryCode: "US"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, out.Failed, "only the unparseable number fails")
	require.Len(t, out.Results, 3)
	assert.Equal(t, "+905012345678", out.Results[0].PhoneNumber)
	assert.Equal(t, "+12015550123", out.Results[1].PhoneNumber)
	assert.Equal(t, "offline", out.Results[1].Source)
	assert.Equal(t, "+12015550124", out.Results[2].PhoneNumber)

	_, err = svc.LookupBulk(context.Background(), make([]service.LookupInput, 51))
	assert.True(t, apperr.Is(err, apperr.CodeInvalidInput))
}
