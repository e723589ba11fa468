package repositories

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/tradeunity/salesintel/pkg/config"
	"github.com/tradeunity/salesintel/pkg/models"
)

// Commercial calendar columns.
const (
	colCalMonth        = "MES"
	colCalName         = "NOMBRE COMERCIAL- FECHA"
	colCalAction       = "TIPO DE ACCION"
	colCalObjective    = "OBJETIVO"
	colCalBusinessUnit = "UNIDAD DE NEGOCIO"
)

var calendarRequired = []string{colCalMonth, colCalName, colCalBusinessUnit}

// LoadCalendar reads the commercial calendar. Rows of other business units
// and rows without an event name are dropped. An unknown month is kept as 0.
func (r *inputRepository) LoadCalendar(ctx context.Context, in config.InputFile, businessUnit string) ([]*models.CalendarEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t, err := ReadTable(in.Path, calendarRequired...)
	if err != nil {
		return nil, fmt.Errorf("failed to load calendar: %w", err)
	}

	var events []*models.CalendarEvent
	for _, row := range t.Rows {
		unit := row.Get(colCalBusinessUnit)
		if businessUnit != "" && !strings.EqualFold(unit, businessUnit) {
			continue
		}
		name := row.Get(colCalName)
		if name == "" {
			continue
		}
		monthName := row.Get(colCalMonth)
		month, ok := models.MonthFromSpanish(monthName)
		if !ok {
			r.logger.Debug("Calendar row has an unknown month",
				zap.Int("line", row.Line),
				zap.String("month", monthName))
		}
		events = append(events, &models.CalendarEvent{
			Month:        month,
			MonthName:    strings.ToUpper(monthName),
			Name:         name,
			ActionType:   row.Get(colCalAction),
			Objective:    row.Get(colCalObjective),
			BusinessUnit: unit,
		})
	}

	r.logger.Info("Loaded commercial calendar",
		zap.String("path", in.Path),
		zap.String("business_unit", businessUnit),
		zap.Int("events", len(events)))

	return events, nil
}
