package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tradeunity/salesintel/pkg/models"
)

func known(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(dec(s))
}

func TestRFVSegments(t *testing.T) {
	tests := []struct {
		name     string
		customer models.CustomerAggregate
		want     string
	}{
		{"champion", models.CustomerAggregate{LTV: dec("50000"), Orders: 6, DaysSinceLast: 90}, models.SegmentChampion},
		{"big but stale is loyal", models.CustomerAggregate{LTV: dec("60000"), Orders: 6, DaysSinceLast: 120}, models.SegmentLoyal},
		{"loyal", models.CustomerAggregate{LTV: dec("20000"), Orders: 3, DaysSinceLast: 180}, models.SegmentLoyal},
		{"at risk", models.CustomerAggregate{LTV: dec("30000"), Orders: 2, DaysSinceLast: 181}, models.SegmentAtRisk},
		{"at risk wins over lost", models.CustomerAggregate{Orders: 5, DaysSinceLast: 400}, models.SegmentAtRisk},
		{"new", models.CustomerAggregate{Orders: 1, DaysSinceLast: 10}, models.SegmentNew},
		{"lost", models.CustomerAggregate{Orders: 1, DaysSinceLast: 366}, models.SegmentLost},
		{"regular", models.CustomerAggregate{Orders: 1, DaysSinceLast: 200}, models.SegmentRegular},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.customer
			assert.Equal(t, tt.want, RFVSegments.Classify(&c))
		})
	}
}

func TestHealthClasses(t *testing.T) {
	tests := []struct {
		customer models.CustomerAggregate
		want     string
	}{
		{models.CustomerAggregate{Healthy: true, LTV: dec("20000")}, models.HealthVeryHealthy},
		{models.CustomerAggregate{Healthy: true, LTV: dec("100")}, models.HealthHealthy},
		{models.CustomerAggregate{DaysSinceLast: 180}, models.HealthRegular},
		{models.CustomerAggregate{DaysSinceLast: 181}, models.HealthNeedsAttention},
	}

	for _, tt := range tests {
		c := tt.customer
		assert.Equal(t, tt.want, HealthClasses.Classify(&c))
	}
}

func TestMarginTiers_UnknownNeverMeetsThresholds(t *testing.T) {
	tests := []struct {
		name     string
		fob      decimal.NullDecimal
		platform decimal.NullDecimal
		want     string
	}{
		{"no data", decimal.NullDecimal{}, decimal.NullDecimal{}, models.MarginTierNoData},
		{"very low fob", known("20"), decimal.NullDecimal{}, models.MarginTierVeryLow},
		{"very low platform", known("200"), known("5"), models.MarginTierVeryLow},
		{"low", known("40"), known("50"), models.MarginTierLow},
		{"premium", known("100"), known("30"), models.MarginTierPremium},
		{"premium needs both", known("150"), decimal.NullDecimal{}, models.MarginTierRegular},
		{"regular", known("70"), known("25"), models.MarginTierRegular},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &models.CustomerAggregate{AvgMarginFOBPct: tt.fob, AvgMarginPlatformPct: tt.platform}
			assert.Equal(t, tt.want, MarginTiers.Classify(c))
		})
	}
}

func TestVolumeMarginClasses(t *testing.T) {
	tests := []struct {
		rank int
		fob  decimal.NullDecimal
		want string
	}{
		{1, known("20"), models.VolumeMarginOpportunist},
		{100, known("120"), models.VolumeMarginIdeal},
		{501, known("100"), models.VolumeMarginPotential},
		{300, known("120"), models.VolumeMarginRegular},
		{1, decimal.NullDecimal{}, models.VolumeMarginRegular},
	}

	for _, tt := range tests {
		c := &models.CustomerAggregate{Rank: tt.rank, AvgMarginFOBPct: tt.fob}
		assert.Equal(t, tt.want, VolumeMarginClasses.Classify(c), "rank %d", tt.rank)
	}
}

func TestIsOpportunist(t *testing.T) {
	assert.False(t, IsOpportunist(&models.CustomerAggregate{}))
	assert.True(t, IsOpportunist(&models.CustomerAggregate{AvgMarginFOBPct: known("49")}))
	assert.True(t, IsOpportunist(&models.CustomerAggregate{AvgPurchaseOverPlatformPct: known("5")}))
	assert.False(t, IsOpportunist(&models.CustomerAggregate{
		AvgMarginFOBPct: known("80"), AvgPurchaseOverFOBPct: known("150"),
		AvgMarginPlatformPct: known("30"), AvgPurchaseOverPlatformPct: known("40"),
	}))
}

func TestDiversityAndInventoryAge(t *testing.T) {
	assert.Equal(t, models.DiversityVeryDiverse, DiversityClasses.Classify(&models.CustomerAggregate{UniqueBrands: 5, UniqueCategories: 5}))
	assert.Equal(t, models.DiversityDiverse, DiversityClasses.Classify(&models.CustomerAggregate{UniqueBrands: 3}))
	assert.Equal(t, models.DiversitySpecialized, DiversityClasses.Classify(&models.CustomerAggregate{UniqueBrands: 2, UniqueCategories: 1}))

	assert.Equal(t, models.InventoryNoData, InventoryAgeClasses.Classify(&models.CustomerAggregate{}))
	assert.Equal(t, models.InventoryFresh, InventoryAgeClasses.Classify(&models.CustomerAggregate{AvgDaysSinceReceipt: known("90")}))
	assert.Equal(t, models.InventoryOld, InventoryAgeClasses.Classify(&models.CustomerAggregate{AvgDaysSinceReceipt: known("365")}))
	assert.Equal(t, models.InventoryMixed, InventoryAgeClasses.Classify(&models.CustomerAggregate{AvgDaysSinceReceipt: known("200")}))
}

func segmentationFixture() []*models.EnrichedLine {
	a1 := enrichedLine("o1", "A@x.com", "S1", day(2025, 6, 1), "100")
	a1.Brand, a1.Category = "B1", "C1"
	a1.MarginFOBPct = known("50")
	a1.FOB = dec("5")
	a1.DaysSinceReceipt = intPtr(30)

	a2 := enrichedLine("o2", "a@x.com ", "S2", day(2025, 6, 20), "300")
	a2.Brand, a2.Category = "B1", "C2"
	a2.EffectiveDiscountPct = dec("20")
	a2.DaysSinceReceipt = intPtr(50)

	b := enrichedLine("o3", "b@x.com", "S1", day(2025, 1, 1), "1000")
	b.Brand, b.Category = "B2", "C1"

	anonymous := enrichedLine("o4", "", "S1", day(2025, 6, 1), "5000")

	return []*models.EnrichedLine{a1, a2, b, anonymous}
}

func TestSegmentationService_Aggregate(t *testing.T) {
	svc := NewSegmentationService(day(2025, 6, 30), zap.NewNop())

	customers := svc.Aggregate(segmentationFixture())
	require.Len(t, customers, 2, "lines without an email are skipped")

	b, a := customers[0], customers[1]
	assert.Equal(t, "b@x.com", b.Email)
	assert.Equal(t, 1, b.Rank)
	assert.Equal(t, 2, a.Rank)
	assertDec(t, "71.43", b.CumulativeShare)
	assert.True(t, b.Top80)
	assertDec(t, "100.00", a.CumulativeShare)
	assert.False(t, a.Top80)

	assert.Equal(t, "a@x.com", a.Email)
	assert.Equal(t, 2, a.Orders)
	assertDec(t, "400.00", a.LTV)
	assertDec(t, "20.00", a.Units)
	assert.Equal(t, 2, a.UniqueSKUs)
	assert.Equal(t, 19, a.DaysActive)
	assert.Equal(t, 10, a.DaysSinceLast)
	assertDec(t, "200.00", a.AvgTicket)
	assertDec(t, "2.00", a.MonthlyFrequency)
	assert.True(t, a.Repeat)
	assert.True(t, a.Healthy)

	assert.Equal(t, "B1", a.DominantBrand)
	assertDec(t, "100.00", a.DominantBrandShare)
	assert.True(t, a.BrandFan)
	assert.Equal(t, "C2", a.DominantCategory)
	assertDec(t, "75.00", a.DominantCategoryShare)
	assert.True(t, a.VerticalLoyal)
	assert.Equal(t, 1, a.UniqueBrands)
	assert.Equal(t, 2, a.UniqueCategories)
	assert.Equal(t, models.DiversitySpecialized, a.Diversity)

	assertDec(t, "10.00", a.AvgDiscountPct)
	assertDec(t, "20.00", a.MaxDiscountPct)
	assertDec(t, "50.00", a.DiscountedLinesPct)
	assert.True(t, a.DiscountHunter)

	assertNullDec(t, "40.00", a.AvgDaysSinceReceipt)
	assertNullDec(t, "40.00", a.MedianDaysSinceReceipt)
	assert.Equal(t, models.InventoryFresh, a.InventoryAge)

	assertNullDec(t, "50.00", a.AvgMarginFOBPct)
	assertNullDec(t, "", a.AvgMarginPlatformPct)
	assertDec(t, "350.00", a.EstimatedProfitFOB)
	assertNullDec(t, "87.50", a.ProfitabilityFOBPct)
	assert.Equal(t, models.MarginTierRegular, a.MarginTier)
	assert.False(t, a.Opportunist)

	assert.Equal(t, models.SegmentRegular, a.Segment)
	assert.Equal(t, models.HealthHealthy, a.Health)
	assert.Equal(t, models.VolumeMarginRegular, a.VolumeMarginClass)

	assert.Equal(t, 180, b.DaysSinceLast)
	assert.Equal(t, models.HealthRegular, b.Health)
	assert.Equal(t, models.InventoryNoData, b.InventoryAge)
	assert.Equal(t, models.MarginTierNoData, b.MarginTier)
}

func TestClassify_Idempotent(t *testing.T) {
	customers := NewSegmentationService(day(2025, 6, 30), zap.NewNop()).Aggregate(segmentationFixture())
	before := *customers[1]

	Classify(customers[1])
	assert.Equal(t, before, *customers[1])
}

func TestRankCustomers_TiesByEmail(t *testing.T) {
	customers := []*models.CustomerAggregate{
		{Email: "z@x.com", LTV: dec("10")},
		{Email: "a@x.com", LTV: dec("10")},
		{Email: "m@x.com", LTV: dec("20")},
	}
	RankCustomers(customers)

	assert.Equal(t, "m@x.com", customers[0].Email)
	assert.Equal(t, "a@x.com", customers[1].Email)
	assert.Equal(t, "z@x.com", customers[2].Email)
	assert.Equal(t, 3, customers[2].Rank)
	assertDec(t, "100.00", customers[2].CumulativeShare)
}

func TestRankCustomers_ZeroRevenue(t *testing.T) {
	customers := []*models.CustomerAggregate{{Email: "a@x.com"}, {Email: "b@x.com"}}
	RankCustomers(customers)
	assert.False(t, customers[0].Top80)
	assert.True(t, customers[0].CumulativeShare.IsZero())
}
