package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/velstra/garrison/internal/domain/model"
	"github.com/velstra/garrison/pkg/metrics"
)

// Row types map the four relations. Attendance rows carry a cascade
// FK so deleting an event removes them in the same statement.

type memberRow struct {
	ID               string    `gorm:"primaryKey;column:id"`
	AssessmentPassed bool      `gorm:"column:assessment_passed;not null;default:false"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (memberRow) TableName() string { return "members" }

type eventRow struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	EventType string    `gorm:"column:event_type;not null;index"`
	HostID    string    `gorm:"column:host_id;not null;index"`
	CohostID  *string   `gorm:"column:cohost_id;index"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`

	Attendance []attendanceRow `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE"`
}

func (eventRow) TableName() string { return "events" }

type attendanceRow struct {
	ID       int64  `gorm:"primaryKey;autoIncrement"`
	EventID  int64  `gorm:"column:event_id;not null;index"`
	MemberID string `gorm:"column:member_id;not null;index"`
}

func (attendanceRow) TableName() string { return "attendance" }

type duelRow struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	WinnerID  string    `gorm:"column:winner_id;not null;index"`
	LoserID   string    `gorm:"column:loser_id;not null;index"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (duelRow) TableName() string { return "duels" }

// GormLedger implements Ledger on Postgres via GORM.
type GormLedger struct {
	db *gorm.DB
}

// NewGormLedger opens the database, migrates the schema, and returns
// a ready ledger.
func NewGormLedger(ctx context.Context, dsn string, opts ...GormOption) (*GormLedger, error) {
	cfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}
	for _, opt := range opts {
		opt(cfg)
	}

	db, err := gorm.Open(postgres.Open(dsn), cfg)
	if err != nil {
		return nil, fmt.Errorf("open ledger database: %w", err)
	}
	if err := db.WithContext(ctx).AutoMigrate(&memberRow{}, &eventRow{}, &attendanceRow{}, &duelRow{}); err != nil {
		return nil, fmt.Errorf("migrate ledger schema: %w", err)
	}
	return &GormLedger{db: db}, nil
}

// EnsureMember upserts a member row; existing rows are left untouched.
func (l *GormLedger) EnsureMember(ctx context.Context, id model.MemberID) error {
	err := l.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&memberRow{ID: string(id)}).Error
	if err != nil {
		metrics.RecordLedgerError()
		return fmt.Errorf("ensure member %s: %w", id, err)
	}
	return nil
}

func (l *GormLedger) ensureMembersTx(tx *gorm.DB, ids []model.MemberID) error {
	rows := make([]memberRow, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, memberRow{ID: string(id)})
	}
	if len(rows) == 0 {
		return nil
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

// RecordEvent commits the event row and its attendance rows in one
// transaction; readers never observe a partial event.
func (l *GormLedger) RecordEvent(ctx context.Context, t model.EventType, host model.MemberID, cohost *model.MemberID, attendees []model.MemberID) (int64, error) {
	final := dedupeAttendees(host, cohost, attendees)

	var eventID int64
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := l.ensureMembersTx(tx, final); err != nil {
			return err
		}

		row := eventRow{
			EventType: string(t),
			HostID:    string(host),
		}
		if cohost != nil {
			s := string(*cohost)
			row.CohostID = &s
		}
		for _, id := range final {
			row.Attendance = append(row.Attendance, attendanceRow{MemberID: string(id)})
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		eventID = row.ID
		return nil
	})
	if err != nil {
		metrics.RecordLedgerError()
		return 0, fmt.Errorf("record event: %w", err)
	}
	metrics.RecordEventRecorded()
	return eventID, nil
}

// DeleteEvent removes the event; the FK cascades the attendance rows.
func (l *GormLedger) DeleteEvent(ctx context.Context, eventID int64) error {
	res := l.db.WithContext(ctx).Delete(&eventRow{}, eventID)
	if res.Error != nil {
		metrics.RecordLedgerError()
		return fmt.Errorf("delete event %d: %w", eventID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete event %d: %w", eventID, ErrNotFound)
	}
	return nil
}

// RecordDuel validates the pair before touching the database.
func (l *GormLedger) RecordDuel(ctx context.Context, winner, loser model.MemberID) (int64, error) {
	if winner == loser {
		return 0, ErrInvalidDuel
	}

	var duelID int64
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := l.ensureMembersTx(tx, []model.MemberID{winner, loser}); err != nil {
			return err
		}
		row := duelRow{WinnerID: string(winner), LoserID: string(loser)}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		duelID = row.ID
		return nil
	})
	if err != nil {
		metrics.RecordLedgerError()
		return 0, fmt.Errorf("record duel: %w", err)
	}
	metrics.RecordDuelRecorded()
	return duelID, nil
}

// SetAssessmentPassed upserts the member and overwrites the flag.
func (l *GormLedger) SetAssessmentPassed(ctx context.Context, id model.MemberID, passed bool) error {
	err := l.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"assessment_passed": passed}),
		}).
		Create(&memberRow{ID: string(id), AssessmentPassed: passed}).Error
	if err != nil {
		metrics.RecordLedgerError()
		return fmt.Errorf("set assessment for %s: %w", id, err)
	}
	return nil
}

// AssessmentPassed reads the flag; unknown members read as false.
func (l *GormLedger) AssessmentPassed(ctx context.Context, id model.MemberID) (bool, error) {
	var row memberRow
	err := l.db.WithContext(ctx).First(&row, "id = ?", string(id)).Error
	if err == gorm.ErrRecordNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read assessment for %s: %w", id, err)
	}
	return row.AssessmentPassed, nil
}

// CountHosted counts events hosted or cohosted by the member.
func (l *GormLedger) CountHosted(ctx context.Context, id model.MemberID, types []model.EventType) (int, error) {
	q := l.db.WithContext(ctx).Model(&eventRow{}).
		Where("host_id = ? OR cohost_id = ?", string(id), string(id))
	if len(types) > 0 {
		q = q.Where("event_type IN ?", typeStrings(types))
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count hosted for %s: %w", id, err)
	}
	return int(n), nil
}

// CountAttended counts attendance rows, joining events when a type
// filter applies.
func (l *GormLedger) CountAttended(ctx context.Context, id model.MemberID, types []model.EventType) (int, error) {
	q := l.db.WithContext(ctx).Model(&attendanceRow{}).
		Where("attendance.member_id = ?", string(id))
	if len(types) > 0 {
		q = q.Joins("JOIN events ON events.id = attendance.event_id").
			Where("events.event_type IN ?", typeStrings(types))
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count attended for %s: %w", id, err)
	}
	return int(n), nil
}

// CountDuelsWon counts duel rows won by the member.
func (l *GormLedger) CountDuelsWon(ctx context.Context, id model.MemberID) (int, error) {
	var n int64
	err := l.db.WithContext(ctx).Model(&duelRow{}).
		Where("winner_id = ?", string(id)).Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count duels for %s: %w", id, err)
	}
	return int(n), nil
}

// CountMembers returns the total member count.
func (l *GormLedger) CountMembers(ctx context.Context) (int, error) {
	var n int64
	if err := l.db.WithContext(ctx).Model(&memberRow{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count members: %w", err)
	}
	return int(n), nil
}

// Close releases the underlying connection pool.
func (l *GormLedger) Close() error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func typeStrings(types []model.EventType) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}
