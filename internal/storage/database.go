package storage

import (
	"errors"
	"fmt"
	"time"

	"weather-notifier/internal/weather"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Database struct {
	db *gorm.DB
}

// CycleRecord is what the loop reports after each cycle.
type CycleRecord struct {
	CycleID              string
	LocationKey          string
	At                   time.Time
	Report               *weather.Report
	Err                  error
	Notifications        int
	NotificationFailures int
}

func NewDatabase(path string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&State{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Database{db: db}, nil
}

// RecordCycle folds one cycle into the state row. A failed cycle keeps the
// previous report.
func (d *Database) RecordCycle(rec CycleRecord) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		var st State
		if err := tx.FirstOrCreate(&st, State{Model: gorm.Model{ID: stateID}}).Error; err != nil {
			return err
		}

		st.LocationKey = rec.LocationKey
		st.LastCycleID = rec.CycleID
		st.LastCycleAt = rec.At
		st.Cycles++
		st.Notifications += int64(rec.Notifications)
		st.NotificationFailures += int64(rec.NotificationFailures)

		if rec.Err != nil {
			st.FetchFailures++
			st.LastError = rec.Err.Error()
		} else {
			st.LastError = ""
		}

		if r := rec.Report; r != nil {
			st.Condition = r.Condition
			st.TemperatureC = r.TemperatureC
			st.UVIndex = r.UVIndex
			st.AirQuality = r.AirQualityCategory()
			st.HasAirQuality = r.AirQuality != nil
			st.ObservedAt = r.ObservedAt
		}

		return tx.Save(&st).Error
	})
}

// GetState returns the state row, or nil when no cycle has run yet.
func (d *Database) GetState() (*State, error) {
	var st State
	result := d.db.First(&st, stateID)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &st, nil
}

// LatestReport rebuilds the last stored report.
func (d *Database) LatestReport() (*weather.Report, error) {
	st, err := d.GetState()
	if err != nil || st == nil || st.ObservedAt.IsZero() {
		return nil, err
	}
	return st.Report(), nil
}

func (s *State) Report() *weather.Report {
	r := &weather.Report{
		Condition:    s.Condition,
		TemperatureC: s.TemperatureC,
		UVIndex:      s.UVIndex,
		ObservedAt:   s.ObservedAt,
	}
	if s.HasAirQuality {
		r.AirQuality = &weather.AirQuality{Category: s.AirQuality}
	}
	return r
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
