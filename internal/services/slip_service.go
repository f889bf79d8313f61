package services

import (
	"errors"
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/sirupsen/logrus"

	"returns-service/internal/models"
)

// ErrSlipUnavailable is returned when a slip is requested for a
// request that has not been approved yet (or is already past shipping).
var ErrSlipUnavailable = errors.New("return slip is only available for approved requests")

// SlipService renders the printable return slip the customer packs
// with the items they ship back.
type SlipService struct {
	logger *logrus.Entry
}

// NewSlipService creates a new return slip service
func NewSlipService(logger *logrus.Logger) *SlipService {
	return &SlipService{logger: logger.WithField("component", "slip-service")}
}

// GenerateReturnSlip renders the slip as a PDF. The request must carry
// its preloaded Items and Shop relations.
func (s *SlipService) GenerateReturnSlip(req *models.ReturnRequest) ([]byte, error) {
	switch req.Status {
	case models.ReturnStatusApproved, models.ReturnStatusShipping:
	default:
		return nil, ErrSlipUnavailable
	}

	cfg := config.NewBuilder().
		WithLeftMargin(10).
		WithTopMargin(15).
		WithRightMargin(10).
		Build()

	m := maroto.New(cfg)

	s.addSlipHeader(m, req)
	s.addSlipDetails(m, req)
	s.addSlipItemsTable(m, req)
	s.addSlipInstructions(m, req)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate return slip: %w", err)
	}

	s.logger.WithField("request", req.RequestNumber).Info("Generated return slip")
	return doc.GetBytes(), nil
}

func (s *SlipService) addSlipHeader(m core.Maroto, req *models.ReturnRequest) {
	shopName := "Marketplace Shop"
	if req.Shop != nil {
		shopName = req.Shop.Name
	}

	m.AddRow(25,
		col.New(6).Add(
			text.New(shopName, props.Text{
				Size:  16,
				Style: fontstyle.Bold,
				Align: align.Left,
			}),
		),
		col.New(6).Add(
			text.New("RETURN SLIP", props.Text{
				Size:  20,
				Style: fontstyle.Bold,
				Align: align.Right,
			}),
			text.New(fmt.Sprintf("# %s", req.RequestNumber), props.Text{
				Size:  10,
				Top:   9,
				Align: align.Right,
			}),
		),
	)

	m.AddRow(5, line.NewCol(12))
}

func (s *SlipService) addSlipDetails(m core.Maroto, req *models.ReturnRequest) {
	var customerName string
	if req.Customer != nil {
		customerName = req.Customer.Name
	}

	m.AddRow(20,
		col.New(6).Add(
			text.New(fmt.Sprintf("Customer: %s", customerName), props.Text{
				Size:  10,
				Align: align.Left,
			}),
			text.New(fmt.Sprintf("Reason: %s", req.Reason.Label()), props.Text{
				Size:  10,
				Top:   5,
				Align: align.Left,
			}),
		),
		col.New(6).Add(
			text.New(fmt.Sprintf("Approved: %s", req.UpdatedAt.Format("Jan 02, 2006")), props.Text{
				Size:  10,
				Align: align.Right,
			}),
			text.New(fmt.Sprintf("Refund: %s", req.RefundAmount.StringFixed(2)), props.Text{
				Size:  10,
				Top:   5,
				Align: align.Right,
			}),
		),
	)
}

func (s *SlipService) addSlipItemsTable(m core.Maroto, req *models.ReturnRequest) {
	m.AddRow(8,
		text.NewCol(8, "Item", props.Text{Size: 10, Style: fontstyle.Bold}),
		text.NewCol(2, "Qty", props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Center}),
		text.NewCol(2, "Amount", props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right}),
	)
	m.AddRow(2, line.NewCol(12))

	for _, item := range req.Items {
		name := item.ProductName
		if item.VariantName != "" {
			name = fmt.Sprintf("%s (%s)", name, item.VariantName)
		}
		m.AddRow(7,
			text.NewCol(8, name, props.Text{Size: 9}),
			text.NewCol(2, fmt.Sprintf("%d", item.Quantity), props.Text{Size: 9, Align: align.Center}),
			text.NewCol(2, item.TotalPrice.StringFixed(2), props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(3, line.NewCol(12))
}

func (s *SlipService) addSlipInstructions(m core.Maroto, req *models.ReturnRequest) {
	m.AddRow(10)
	m.AddRow(8,
		text.NewCol(12, "Return instructions", props.Text{Size: 11, Style: fontstyle.Bold}),
	)
	instructions := []string{
		"1. Place this slip inside the package together with the items listed above.",
		"2. Pack items in their original packaging where possible.",
		"3. Ship the package and submit the tracking number in your return request.",
	}
	for _, instruction := range instructions {
		m.AddRow(6,
			text.NewCol(12, instruction, props.Text{Size: 9}),
		)
	}

	m.AddRow(10,
		text.NewCol(12, fmt.Sprintf("Reference: %s", req.RequestNumber), props.Text{
			Size:  8,
			Align: align.Center,
		}),
	)
}
