package services

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tradeunity/salesintel/pkg/logging"
	"github.com/tradeunity/salesintel/pkg/models"
	"github.com/tradeunity/salesintel/pkg/parse"
)

var (
	ltvChampion = decimal.NewFromInt(50000)
	ltvLoyal    = decimal.NewFromInt(20000)

	brandFanShare      = decimal.NewFromInt(70)
	verticalLoyalShare = decimal.NewFromInt(60)
	top80Share         = decimal.NewFromInt(80)

	discountHunterAvg   = decimal.NewFromInt(15)
	discountHunterShare = decimal.NewFromInt(50)
)

// Volume rank cut-offs of the volume versus margin relation.
const (
	highVolumeRank = 100
	lowVolumeRank  = 500
)

// RFVSegments is the recency / frequency / value decision list, in priority order.
var RFVSegments = NewDecisionList(models.SegmentRegular,
	Rule[*models.CustomerAggregate]{models.SegmentChampion, func(c *models.CustomerAggregate) bool {
		return c.LTV.GreaterThanOrEqual(ltvChampion) && c.Orders >= 6 && c.DaysSinceLast <= 90
	}},
	Rule[*models.CustomerAggregate]{models.SegmentLoyal, func(c *models.CustomerAggregate) bool {
		return c.LTV.GreaterThanOrEqual(ltvLoyal) && c.Orders >= 3 && c.DaysSinceLast <= 180
	}},
	Rule[*models.CustomerAggregate]{models.SegmentAtRisk, func(c *models.CustomerAggregate) bool {
		return c.DaysSinceLast > 180 && c.Orders >= 2
	}},
	Rule[*models.CustomerAggregate]{models.SegmentNew, func(c *models.CustomerAggregate) bool {
		return c.Orders == 1 && c.DaysSinceLast <= 90
	}},
	Rule[*models.CustomerAggregate]{models.SegmentLost, func(c *models.CustomerAggregate) bool {
		return c.DaysSinceLast > 365
	}},
)

// HealthClasses is independent of RFVSegments; the two may disagree.
var HealthClasses = NewDecisionList(models.HealthNeedsAttention,
	Rule[*models.CustomerAggregate]{models.HealthVeryHealthy, func(c *models.CustomerAggregate) bool {
		return c.Healthy && c.LTV.GreaterThanOrEqual(ltvLoyal)
	}},
	Rule[*models.CustomerAggregate]{models.HealthHealthy, func(c *models.CustomerAggregate) bool {
		return c.Healthy
	}},
	Rule[*models.CustomerAggregate]{models.HealthRegular, func(c *models.CustomerAggregate) bool {
		return c.DaysSinceLast <= 180
	}},
)

// DiversityClasses labels how spread a customer's purchases are.
var DiversityClasses = NewDecisionList(models.DiversitySpecialized,
	Rule[*models.CustomerAggregate]{models.DiversityVeryDiverse, func(c *models.CustomerAggregate) bool {
		return c.UniqueCategories >= 5 && c.UniqueBrands >= 5
	}},
	Rule[*models.CustomerAggregate]{models.DiversityDiverse, func(c *models.CustomerAggregate) bool {
		return c.UniqueCategories >= 3 || c.UniqueBrands >= 3
	}},
)

// InventoryAgeClasses labels the age of the stock a customer buys.
var InventoryAgeClasses = NewDecisionList(models.InventoryMixed,
	Rule[*models.CustomerAggregate]{models.InventoryNoData, func(c *models.CustomerAggregate) bool {
		return !c.AvgDaysSinceReceipt.Valid
	}},
	Rule[*models.CustomerAggregate]{models.InventoryFresh, func(c *models.CustomerAggregate) bool {
		return atMost(c.AvgDaysSinceReceipt, 90)
	}},
	Rule[*models.CustomerAggregate]{models.InventoryOld, func(c *models.CustomerAggregate) bool {
		return atLeast(c.AvgDaysSinceReceipt, 365)
	}},
)

// MarginTiers labels customers by the margins they buy at. An unknown
// average never satisfies a threshold.
var MarginTiers = NewDecisionList(models.MarginTierRegular,
	Rule[*models.CustomerAggregate]{models.MarginTierNoData, func(c *models.CustomerAggregate) bool {
		return !c.AvgMarginFOBPct.Valid && !c.AvgMarginPlatformPct.Valid
	}},
	Rule[*models.CustomerAggregate]{models.MarginTierVeryLow, func(c *models.CustomerAggregate) bool {
		return below(c.AvgMarginFOBPct, 30) || below(c.AvgMarginPlatformPct, 10)
	}},
	Rule[*models.CustomerAggregate]{models.MarginTierLow, func(c *models.CustomerAggregate) bool {
		return below(c.AvgMarginFOBPct, 50) || below(c.AvgMarginPlatformPct, 20)
	}},
	Rule[*models.CustomerAggregate]{models.MarginTierPremium, func(c *models.CustomerAggregate) bool {
		return atLeast(c.AvgMarginFOBPct, 100) && atLeast(c.AvgMarginPlatformPct, 30)
	}},
)

// VolumeMarginClasses relates the revenue rank to the FOB margin. It needs
// Rank to be set.
var VolumeMarginClasses = NewDecisionList(models.VolumeMarginRegular,
	Rule[*models.CustomerAggregate]{models.VolumeMarginOpportunist, func(c *models.CustomerAggregate) bool {
		return c.Rank <= highVolumeRank && below(c.AvgMarginFOBPct, 50)
	}},
	Rule[*models.CustomerAggregate]{models.VolumeMarginIdeal, func(c *models.CustomerAggregate) bool {
		return c.Rank <= highVolumeRank && atLeast(c.AvgMarginFOBPct, 100)
	}},
	Rule[*models.CustomerAggregate]{models.VolumeMarginPotential, func(c *models.CustomerAggregate) bool {
		return c.Rank > lowVolumeRank && atLeast(c.AvgMarginFOBPct, 100)
	}},
)

func below(v decimal.NullDecimal, limit int64) bool {
	return v.Valid && v.Decimal.LessThan(decimal.NewFromInt(limit))
}

func atLeast(v decimal.NullDecimal, limit int64) bool {
	return v.Valid && v.Decimal.GreaterThanOrEqual(decimal.NewFromInt(limit))
}

func atMost(v decimal.NullDecimal, limit int64) bool {
	return v.Valid && v.Decimal.LessThanOrEqual(decimal.NewFromInt(limit))
}

// IsOpportunist flags customers buying near cost against either basis.
func IsOpportunist(c *models.CustomerAggregate) bool {
	fob := below(c.AvgMarginFOBPct, 50) || below(c.AvgPurchaseOverFOBPct, 100)
	platform := below(c.AvgMarginPlatformPct, 20) || below(c.AvgPurchaseOverPlatformPct, 10)
	return fob || platform
}

// Classify sets every rule-based label of c. Rank must already be assigned.
// Calling it again on the same aggregate yields the same labels.
func Classify(c *models.CustomerAggregate) {
	c.Segment = RFVSegments.Classify(c)
	c.Health = HealthClasses.Classify(c)
	c.Diversity = DiversityClasses.Classify(c)
	c.InventoryAge = InventoryAgeClasses.Classify(c)
	c.MarginTier = MarginTiers.Classify(c)
	c.Opportunist = IsOpportunist(c)
	c.VolumeMarginClass = VolumeMarginClasses.Classify(c)
}

// SegmentationService folds enriched lines into one aggregate per customer.
type SegmentationService interface {
	// Aggregate returns the customers sorted by LTV, highest first, with
	// rank, cumulative share and every label set. Lines without an email
	// are skipped.
	Aggregate(lines []*models.EnrichedLine) []*models.CustomerAggregate
}

type segmentationService struct {
	referenceDate time.Time
	logger        *zap.Logger
}

// NewSegmentationService creates a segmentation service measuring recency
// against referenceDate.
func NewSegmentationService(referenceDate time.Time, logger *zap.Logger) SegmentationService {
	return &segmentationService{
		referenceDate: referenceDate,
		logger:        logger.Named("segmentation"),
	}
}

var _ SegmentationService = (*segmentationService)(nil)

func (s *segmentationService) Aggregate(lines []*models.EnrichedLine) []*models.CustomerAggregate {
	byEmail := make(map[string][]*models.EnrichedLine)
	var order []string
	skipped := 0
	for _, line := range lines {
		email := parse.Email(line.CustomerEmail)
		if email == "" {
			skipped++
			continue
		}
		if _, ok := byEmail[email]; !ok {
			order = append(order, email)
		}
		byEmail[email] = append(byEmail[email], line)
	}

	customers := make([]*models.CustomerAggregate, 0, len(order))
	for _, email := range order {
		customers = append(customers, s.fold(email, byEmail[email]))
	}

	RankCustomers(customers)
	for _, c := range customers {
		Classify(c)
	}

	fields := []zap.Field{
		zap.Int("customers", len(customers)),
		zap.Int("lines_without_email", skipped),
	}
	if len(customers) > 0 {
		fields = append(fields,
			zap.String("top_customer", logging.MaskEmail(customers[0].Email)),
			zap.String("top_customer_ltv", customers[0].LTV.StringFixed(2)))
	}
	s.logger.Info("Aggregated customers", fields...)

	return customers
}

// fold computes the per-customer metrics of one customer's lines.
func (s *segmentationService) fold(email string, lines []*models.EnrichedLine) *models.CustomerAggregate {
	c := &models.CustomerAggregate{
		Email:         email,
		LTV:           decimal.Zero,
		Units:         decimal.Zero,
		DaysSinceLast: noPurchaseDays,
	}

	orders := make(map[string]struct{})
	skus := make(map[string]struct{})
	brands, categories := NewTotals(), NewTotals()
	var brandNames, categoryNames []string
	var discounts []decimal.Decimal
	var receiptDays []decimal.Decimal
	var fobPct, platformPct, overFOB, overPlatform []decimal.NullDecimal
	costFOB, costPlatform := decimal.Zero, decimal.Zero
	discounted := 0

	for _, l := range lines {
		if c.FirstName == "" && c.LastName == "" {
			c.FirstName, c.LastName = l.CustomerFirstName, l.CustomerLastName
		}
		if c.TaxID == "" {
			c.TaxID = l.CustomerTaxID
		}
		if l.OrderID != "" {
			orders[l.OrderID] = struct{}{}
		}
		if sku := parse.Key(l.SKU); sku != "" {
			skus[sku] = struct{}{}
		}

		c.LTV = c.LTV.Add(l.LineTotalWithTax)
		c.Units = c.Units.Add(l.UnitQuantity)

		if !l.OrderDate.IsZero() {
			if c.FirstPurchase.IsZero() || l.OrderDate.Before(c.FirstPurchase) {
				c.FirstPurchase = l.OrderDate
			}
			if l.OrderDate.After(c.LastPurchase) {
				c.LastPurchase = l.OrderDate
			}
		}

		brands.Add(l.Brand, l.LineTotalWithTax)
		categories.Add(l.Category, l.LineTotalWithTax)
		brandNames = append(brandNames, l.Brand)
		categoryNames = append(categoryNames, l.Category)

		discounts = append(discounts, l.EffectiveDiscountPct)
		if l.EffectiveDiscountPct.IsPositive() {
			discounted++
		}
		if l.DaysSinceReceipt != nil {
			receiptDays = append(receiptDays, decimal.NewFromInt(int64(*l.DaysSinceReceipt)))
		}

		fobPct = append(fobPct, l.MarginFOBPct)
		platformPct = append(platformPct, l.MarginPlatformPct)
		overFOB = append(overFOB, l.PurchaseOverFOBPct)
		overPlatform = append(overPlatform, l.PurchaseOverPlatformPct)
		if l.FOB.IsPositive() {
			costFOB = costFOB.Add(l.FOB.Mul(l.UnitQuantity))
		}
		if l.PlatformPrice.IsPositive() {
			costPlatform = costPlatform.Add(l.PlatformPrice.Mul(l.UnitQuantity))
		}
	}

	c.Orders = len(orders)
	c.UniqueSKUs = len(skus)
	if !c.LastPurchase.IsZero() {
		c.DaysActive = parse.DaysBetween(c.FirstPurchase, c.LastPurchase)
		c.DaysSinceLast = parse.DaysBetween(c.LastPurchase, s.referenceDate)
	}
	c.AvgTicket = c.LTV.Div(decimal.NewFromInt(int64(max(c.Orders, 1))))
	months := decimal.Max(decimal.NewFromInt(int64(c.DaysActive)).Div(decimal.NewFromInt(30)), decimal.NewFromInt(1))
	c.MonthlyFrequency = decimal.NewFromInt(int64(c.Orders)).Div(months)
	c.Repeat = c.Orders > 1
	c.Healthy = c.DaysSinceLast <= 90 && c.Orders >= 2

	c.FavoriteCategory = Mode(categoryNames)
	c.FavoriteBrand = Mode(brandNames)

	var brandRevenue, categoryRevenue decimal.Decimal
	c.DominantBrand, brandRevenue = brands.Top()
	c.DominantBrandShare = ShareOf(brandRevenue, c.LTV)
	c.BrandFan = c.DominantBrand != "" && c.DominantBrandShare.GreaterThanOrEqual(brandFanShare)
	c.DominantCategory, categoryRevenue = categories.Top()
	c.DominantCategoryShare = ShareOf(categoryRevenue, c.LTV)
	c.VerticalLoyal = c.DominantCategory != "" && c.DominantCategoryShare.GreaterThanOrEqual(verticalLoyalShare)
	c.UniqueBrands = brands.Len()
	c.UniqueCategories = categories.Len()

	c.AvgDiscountPct = Mean(discounts).Decimal
	c.MaxDiscountPct = decimal.Zero
	for _, d := range discounts {
		c.MaxDiscountPct = decimal.Max(c.MaxDiscountPct, d)
	}
	c.DiscountedLinesPct = ShareOf(decimal.NewFromInt(int64(discounted)), decimal.NewFromInt(int64(len(lines))))
	c.DiscountHunter = c.AvgDiscountPct.GreaterThanOrEqual(discountHunterAvg) ||
		c.DiscountedLinesPct.GreaterThanOrEqual(discountHunterShare)

	c.AvgDaysSinceReceipt = Mean(receiptDays)
	c.MedianDaysSinceReceipt = Median(receiptDays)

	c.AvgMarginFOBPct = Mean(Known(fobPct))
	c.MedianMarginFOBPct = Median(Known(fobPct))
	c.AvgMarginPlatformPct = Mean(Known(platformPct))
	c.MedianMarginPlatformPct = Median(Known(platformPct))
	c.AvgPurchaseOverFOBPct = Mean(Known(overFOB))
	c.AvgPurchaseOverPlatformPct = Mean(Known(overPlatform))

	c.EstimatedProfitFOB = c.LTV.Sub(costFOB)
	c.EstimatedProfitPlatform = c.LTV.Sub(costPlatform)
	if c.LTV.IsPositive() {
		c.ProfitabilityFOBPct = decimal.NewNullDecimal(c.EstimatedProfitFOB.Div(c.LTV).Mul(hundred))
		c.ProfitabilityPlatformPct = decimal.NewNullDecimal(c.EstimatedProfitPlatform.Div(c.LTV).Mul(hundred))
	}

	return c
}

// RankCustomers sorts customers by LTV, highest first (ties by email), and
// assigns rank, cumulative revenue share and the 80/20 flag.
func RankCustomers(customers []*models.CustomerAggregate) {
	sort.SliceStable(customers, func(i, j int) bool {
		a, b := customers[i], customers[j]
		if !a.LTV.Equal(b.LTV) {
			return a.LTV.GreaterThan(b.LTV)
		}
		return a.Email < b.Email
	})

	total := decimal.Zero
	for _, c := range customers {
		total = total.Add(c.LTV)
	}

	running := decimal.Zero
	for i, c := range customers {
		running = running.Add(c.LTV)
		c.Rank = i + 1
		c.CumulativeShare = ShareOf(running, total)
		c.Top80 = total.IsPositive() && c.CumulativeShare.LessThanOrEqual(top80Share)
	}
}
