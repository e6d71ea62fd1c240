// Package parser reads the three run inputs: queue extracts and role
// rosters as CSV, and the initiative portfolio as YAML.
package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"contact-waterfall/errors"
	"contact-waterfall/models"
)

// ParseQueues reads queue extract CSV from the reader. Lines starting
// with '#' are headers/comments. Expected fields:
//
//	intent, channel, businessUnit, volume, csat, fcr, ahtMinutes,
//	acwMinutes, transferRate, escalationRate, repeatRate, complexity
//
// Rates and complexity must be in [0,1]; CSAT is on a 0-1 scale too
// (divide 5-point scores upstream).
func ParseQueues(r io.Reader) ([]models.Queue, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	var queues []models.Queue
	lineNum := 0

	for {
		record, err := reader.Read()
		lineNum++
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV at line %d: %w", lineNum, err)
		}

		if len(record) > 0 && strings.HasPrefix(record[0], "#") {
			continue
		}

		if len(record) != 12 {
			return nil, &errors.ParseError{
				Line:   lineNum,
				Record: record,
				Err:    errors.ErrInvalidFieldCount,
			}
		}

		q := models.Queue{
			Intent:       strings.TrimSpace(record[0]),
			Channel:      strings.TrimSpace(record[1]),
			BusinessUnit: strings.TrimSpace(record[2]),
		}

		fields := []struct {
			idx  int
			dst  *float64
			rate bool
		}{
			{3, &q.Volume, false},
			{4, &q.CSAT, true},
			{5, &q.FCR, true},
			{6, &q.AHTMinutes, false},
			{7, &q.ACWMinutes, false},
			{8, &q.TransferRate, true},
			{9, &q.EscalationRate, true},
			{10, &q.RepeatRate, true},
		}
		for _, f := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[f.idx]), 64)
			if err != nil {
				return nil, &errors.ParseError{
					Line:   lineNum,
					Record: record,
					Err:    fmt.Errorf("%w: %v", errors.ErrInvalidNumber, err),
				}
			}
			if f.rate && (v < 0 || v > 1) {
				return nil, &errors.ParseError{
					Line:   lineNum,
					Record: record,
					Err:    errors.ErrInvalidRate,
				}
			}
			*f.dst = v
		}

		cx, err := strconv.ParseFloat(strings.TrimSpace(record[11]), 64)
		if err != nil {
			return nil, &errors.ParseError{
				Line:   lineNum,
				Record: record,
				Err:    fmt.Errorf("%w: %v", errors.ErrInvalidNumber, err),
			}
		}
		if cx < 0 || cx > 1 {
			return nil, &errors.ParseError{
				Line:   lineNum,
				Record: record,
				Err:    errors.ErrInvalidComplexity,
			}
		}
		q.Complexity = cx

		queues = append(queues, q)
	}

	if len(queues) == 0 {
		return nil, errors.ErrEmptyDataset
	}
	return queues, nil
}

// ParseRoles reads the role roster CSV: role, headcount, costPerFTE.
// Lines starting with '#' are headers/comments.
func ParseRoles(r io.Reader) ([]models.Role, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	var roles []models.Role
	lineNum := 0

	for {
		record, err := reader.Read()
		lineNum++
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV at line %d: %w", lineNum, err)
		}

		if len(record) > 0 && strings.HasPrefix(record[0], "#") {
			continue
		}

		if len(record) != 3 {
			return nil, &errors.ParseError{
				Line:   lineNum,
				Record: record,
				Err:    errors.ErrInvalidFieldCount,
			}
		}

		role := models.Role{Name: strings.TrimSpace(record[0])}

		role.Headcount, err = strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if err != nil {
			return nil, &errors.ParseError{
				Line:   lineNum,
				Record: record,
				Err:    fmt.Errorf("%w: %v", errors.ErrInvalidNumber, err),
			}
		}

		role.CostPerFTE, err = strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		if err != nil {
			return nil, &errors.ParseError{
				Line:   lineNum,
				Record: record,
				Err:    fmt.Errorf("%w: %v", errors.ErrInvalidNumber, err),
			}
		}

		roles = append(roles, role)
	}

	if len(roles) == 0 {
		return nil, errors.ErrEmptyDataset
	}
	return roles, nil
}

// Portfolio is the YAML document describing a transformation program:
// global parameters, the initiative list and the technology investment
// tables.
type Portfolio struct {
	Params      models.Params         `yaml:"params"`
	Initiatives []models.Initiative   `yaml:"initiatives"`
	Tech        models.TechInvestment `yaml:"techInvestment"`
}

var validEfforts = map[string]bool{"": true, "low": true, "medium": true, "high": true}

// ParsePortfolio reads and validates the portfolio YAML. Defaults are
// applied to params; initiative rates must be in [0,1] and effort one of
// low/medium/high.
func ParsePortfolio(r io.Reader) (*Portfolio, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading portfolio: %w", err)
	}

	var p Portfolio
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("error parsing portfolio YAML: %w", err)
	}

	if len(p.Initiatives) == 0 {
		return nil, errors.ErrNoInitiatives
	}
	if err := applyEnvOverrides(&p.Params); err != nil {
		return nil, err
	}
	p.Params.ApplyDefaults()

	for _, init := range p.Initiatives {
		if init.ID == "" {
			return nil, &errors.ValidationError{Field: "initiatives.id", Reason: "missing"}
		}
		if init.Impact < 0 || init.Impact > 1 {
			return nil, &errors.ValidationError{
				Field:  fmt.Sprintf("initiatives[%s].impact", init.ID),
				Reason: "must be in [0,1]",
			}
		}
		if init.Adoption < 0 || init.Adoption > 1 {
			return nil, &errors.ValidationError{
				Field:  fmt.Sprintf("initiatives[%s].adoption", init.ID),
				Reason: "must be in [0,1]",
			}
		}
		if !validEfforts[strings.ToLower(init.Effort)] {
			return nil, fmt.Errorf("%w: initiative %s: %q", errors.ErrUnknownEffort, init.ID, init.Effort)
		}
	}

	return &p, nil
}

// applyEnvOverrides lets deployment environments pin scalar parameters
// without editing the portfolio file. Overrides win over YAML values and
// are applied before defaults fill the gaps.
func applyEnvOverrides(p *models.Params) error {
	if err := envOverrideInt(&p.HorizonYears, "WATERFALL_HORIZON"); err != nil {
		return err
	}
	floats := []struct {
		dst  *float64
		key  string
		name string
	}{
		{&p.DiscountRate, "WATERFALL_DISCOUNT_RATE", "discountRate"},
		{&p.WageInflation, "WATERFALL_WAGE_INFLATION", "wageInflation"},
		{&p.Shrinkage, "WATERFALL_SHRINKAGE", "shrinkage"},
		{&p.TargetShrinkage, "WATERFALL_TARGET_SHRINKAGE", "targetShrinkage"},
		{&p.VolumeAnnualizationFactor, "WATERFALL_ANNUALIZATION", "volumeAnnualizationFactor"},
		{&p.LocationArbitrage, "WATERFALL_LOCATION_ARBITRAGE", "locationArbitrage"},
	}
	for _, f := range floats {
		set, err := envOverrideFloat(f.dst, f.key)
		if err != nil {
			return err
		}
		if set && *f.dst == 0 {
			p.MarkExplicitZero(f.name)
		}
	}
	return nil
}

func envOverrideInt(field *int, envKey string) error {
	val := os.Getenv(envKey)
	if val == "" {
		return nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return &errors.ValidationError{Field: envKey, Reason: err.Error()}
	}
	*field = parsed
	return nil
}

func envOverrideFloat(field *float64, envKey string) (bool, error) {
	val := os.Getenv(envKey)
	if val == "" {
		return false, nil
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return false, &errors.ValidationError{Field: envKey, Reason: err.Error()}
	}
	*field = parsed
	return true, nil
}
