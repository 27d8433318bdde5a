package businessflow

import (
	"context"
	"fmt"
	"strconv"

	"github.com/amirphl/webbuilder-crm/app/dto"
	"github.com/amirphl/webbuilder-crm/models"
	"github.com/amirphl/webbuilder-crm/repository"
	"github.com/amirphl/webbuilder-crm/utils"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const recentLeadsLimit = 5

// ConversionRate returns won/total as a percentage rounded to one decimal place, or 0 without leads
func ConversionRate(total, won int64) float64 {
	if total <= 0 {
		return 0
	}
	rate := decimal.NewFromInt(won).Mul(hundred).Div(decimal.NewFromInt(total)).Round(1)
	return rate.InexactFloat64()
}

// ReportFlow aggregates pipeline statistics for staff
type ReportFlow interface {
	Dashboard(ctx context.Context, req *dto.DashboardRequest) (*dto.DashboardResponse, error)
	// ExportWorkbook returns an xlsx file with one sheet per entity
	ExportWorkbook(ctx context.Context) (string, []byte, error)
}

type ReportFlowImpl struct {
	leadRepo       repository.LeadRepository
	quoteRepo      repository.QuoteRepository
	conversionRepo repository.ConversionTrackingRepository
	now            Clock
}

func NewReportFlow(
	leadRepo repository.LeadRepository,
	quoteRepo repository.QuoteRepository,
	conversionRepo repository.ConversionTrackingRepository,
	clock Clock,
) ReportFlow {
	return &ReportFlowImpl{
		leadRepo:       leadRepo,
		quoteRepo:      quoteRepo,
		conversionRepo: conversionRepo,
		now:            defaultClock(clock),
	}
}

func (f *ReportFlowImpl) Dashboard(ctx context.Context, req *dto.DashboardRequest) (*dto.DashboardResponse, error) {
	if req == nil {
		req = &dto.DashboardRequest{}
	}
	after, before, err := dateWindow(req.From, req.To)
	if err != nil {
		return nil, NewBusinessError("DASHBOARD_VALIDATION_FAILED", "Invalid report window", err)
	}
	now := f.now()

	leadCounts, err := f.leadRepo.CountByStatus(ctx)
	if err != nil {
		return nil, NewBusinessError("DASHBOARD_FAILED", "Failed to count leads", err)
	}
	leads := dto.LeadStatsDTO{ByStatus: make(map[string]int64, len(leadCounts))}
	for status, n := range leadCounts {
		leads.ByStatus[string(status)] = n
		leads.Total += n
	}
	leads.New = leadCounts[models.LeadStatusNew]
	leads.Qualified = leadCounts[models.LeadStatusQualified]
	leads.ClosedWon = leadCounts[models.LeadStatusClosedWon]
	leads.ConversionRate = ConversionRate(leads.Total, leads.ClosedWon)

	quoteCounts, err := f.quoteRepo.CountByEffectiveStatus(ctx, now)
	if err != nil {
		return nil, NewBusinessError("DASHBOARD_FAILED", "Failed to count quotes", err)
	}
	accepted, err := f.quoteRepo.SumAccepted(ctx)
	if err != nil {
		return nil, NewBusinessError("DASHBOARD_FAILED", "Failed to sum accepted quotes", err)
	}
	quotes := dto.QuoteStatsDTO{ByStatus: make(map[string]int64, len(quoteCounts)), AcceptedValue: formatMoney(accepted)}
	for status, n := range quoteCounts {
		quotes.ByStatus[string(status)] = n
		quotes.Total += n
	}

	actionCounts, err := f.conversionRepo.CountByAction(ctx, after, before)
	if err != nil {
		return nil, NewBusinessError("DASHBOARD_FAILED", "Failed to count conversions", err)
	}
	conversions := dto.ConversionStatsDTO{ByAction: make(map[string]int64, len(actionCounts)), From: req.From, To: req.To}
	for action, n := range actionCounts {
		conversions.ByAction[string(action)] = n
		conversions.Total += n
	}

	recent, err := f.leadRepo.ByFilter(ctx, models.LeadFilter{}, "created_at DESC, id DESC", recentLeadsLimit, 0)
	if err != nil {
		return nil, NewBusinessError("DASHBOARD_FAILED", "Failed to load recent leads", err)
	}
	recentLeads := make([]dto.LeadDTO, 0, len(recent))
	for _, l := range recent {
		recentLeads = append(recentLeads, ToLeadDTO(*l))
	}

	return &dto.DashboardResponse{
		Message:     "Dashboard generated successfully",
		Leads:       leads,
		Quotes:      quotes,
		Conversions: conversions,
		RecentLeads: recentLeads,
		GeneratedAt: formatTime(now),
	}, nil
}

func (f *ReportFlowImpl) ExportWorkbook(ctx context.Context) (string, []byte, error) {
	now := f.now()

	leads, err := f.leadRepo.ByFilter(ctx, models.LeadFilter{}, "id ASC", 0, 0)
	if err != nil {
		return "", nil, NewBusinessError("EXPORT_FAILED", "Failed to load leads", err)
	}
	quotes, err := f.quoteRepo.ByFilter(ctx, models.QuoteFilter{}, "id ASC", 0, 0)
	if err != nil {
		return "", nil, NewBusinessError("EXPORT_FAILED", "Failed to load quotes", err)
	}
	events, err := f.conversionRepo.ByFilter(ctx, models.ConversionTrackingFilter{}, "id ASC", 0, 0)
	if err != nil {
		return "", nil, NewBusinessError("EXPORT_FAILED", "Failed to load conversions", err)
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	xl.SetSheetName(xl.GetSheetName(0), "Leads")
	leadRows := make([][]string, 0, len(leads))
	for _, l := range leads {
		leadRows = append(leadRows, []string{
			strconv.FormatUint(uint64(l.ID), 10),
			l.Name,
			l.Email,
			utils.Deref(l.Phone),
			utils.Deref(l.Company),
			utils.Deref(formatNullMoney(l.Budget)),
			string(l.Source),
			string(l.Status),
			l.ProjectType,
			utils.Deref(formatTimePtr(l.ContactedAt)),
			formatTime(l.CreatedAt),
		})
	}
	if err := writeSheet(xl, "Leads", []string{"id", "name", "email", "phone", "company", "budget", "source", "status", "project_type", "contacted_at", "created_at"}, leadRows); err != nil {
		return "", nil, err
	}

	quoteRows := make([][]string, 0, len(quotes))
	for _, q := range quotes {
		leadID := ""
		if q.LeadID != nil {
			leadID = strconv.FormatUint(uint64(*q.LeadID), 10)
		}
		quoteRows = append(quoteRows, []string{
			q.QuoteNumber,
			q.ClientName,
			q.ClientEmail,
			formatMoney(q.Subtotal),
			q.TaxRate.StringFixed(2),
			formatMoney(q.TaxAmount),
			formatMoney(q.TotalAmount),
			string(q.EffectiveStatus(now)),
			q.ValidUntil.UTC().Format(utils.DateLayout),
			leadID,
			formatTime(q.CreatedAt),
		})
	}
	if err := writeSheet(xl, "Quotes", []string{"quote_number", "client_name", "client_email", "subtotal", "tax_rate", "tax_amount", "total_amount", "status", "valid_until", "lead_id", "created_at"}, quoteRows); err != nil {
		return "", nil, err
	}

	eventRows := make([][]string, 0, len(events))
	for _, e := range events {
		leadID := ""
		if e.LeadID != nil {
			leadID = strconv.FormatUint(uint64(*e.LeadID), 10)
		}
		eventRows = append(eventRows, []string{
			strconv.FormatUint(uint64(e.ID), 10),
			e.Source,
			string(e.Action),
			utils.Deref(e.PageURL),
			utils.Deref(formatNullMoney(e.Value)),
			leadID,
			formatTime(e.Timestamp),
		})
	}
	if err := writeSheet(xl, "Conversions", []string{"id", "source", "action", "page_url", "value", "lead_id", "timestamp"}, eventRows); err != nil {
		return "", nil, err
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}
	filename := fmt.Sprintf("crm_export_%s.xlsx", now.UTC().Format("20060102"))
	return filename, buf.Bytes(), nil
}

// writeSheet creates the sheet if needed and writes a header row followed by rows
func writeSheet(xl *excelize.File, name string, header []string, rows [][]string) error {
	if idx, _ := xl.GetSheetIndex(name); idx < 0 {
		if _, err := xl.NewSheet(name); err != nil {
			return NewBusinessError("EXCEL_WRITE_ERROR", "Failed to create sheet", err)
		}
	}
	if err := xl.SetSheetRow(name, "A1", &header); err != nil {
		return NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write sheet header", err)
	}
	for i := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return NewBusinessError("EXCEL_WRITE_ERROR", "Failed to address row", err)
		}
		if err := xl.SetSheetRow(name, cellRef, &rows[i]); err != nil {
			return NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write row", err)
		}
	}
	return nil
}
