package postgres

import (
	"database/sql"
	"time"
)

type seasonTableModel struct {
	ID               int64     `db:"id"`
	Name             string    `db:"name"`
	StartDate        time.Time `db:"start_date"`
	EndDate          time.Time `db:"end_date"`
	DailyTargetHours float64   `db:"daily_target_hours"`
	DaysCount        int       `db:"days_count"`
	Status           string    `db:"status"`
	CreatedAt        time.Time `db:"created_at"`
}

type seasonInsertModel struct {
	Name             string    `db:"name"`
	StartDate        time.Time `db:"start_date"`
	EndDate          time.Time `db:"end_date"`
	DailyTargetHours float64   `db:"daily_target_hours"`
	DaysCount        int       `db:"days_count"`
	Status           string    `db:"status"`
}

type participantTableModel struct {
	ID             int64         `db:"id"`
	Phone          string        `db:"phone"`
	FullName       string        `db:"full_name"`
	TelegramUserID sql.NullInt64 `db:"telegram_user_id"`
	Status         string        `db:"status"`
	CreatedAt      time.Time     `db:"created_at"`
}

type assignmentTableModel struct {
	ID                 int64         `db:"id"`
	SeasonID           int64         `db:"season_id"`
	ParticipantID      int64         `db:"participant_id"`
	Role               string        `db:"role"`
	ParentCaptainID    sql.NullInt64 `db:"parent_captain_id"`
	ParentSubcaptainID sql.NullInt64 `db:"parent_subcaptain_id"`
	GroupIndex         sql.NullInt32 `db:"group_index"`
	CreatedAt          time.Time     `db:"created_at"`
	UpdatedAt          time.Time     `db:"updated_at"`
}

type hoursTableModel struct {
	ID            int64     `db:"id"`
	ParticipantID int64     `db:"participant_id"`
	WorkDate      time.Time `db:"work_date"`
	Hours         float64   `db:"hours"`
	CreatedAt     time.Time `db:"created_at"`
}

type aggregateDailyInsertModel struct {
	ParticipantID int64     `db:"participant_id"`
	SeasonID      int64     `db:"season_id"`
	WorkDate      time.Time `db:"work_date"`
	Role          string    `db:"role"`
	PersonalHours float64   `db:"personal_hours"`
	TeamHours     float64   `db:"team_hours"`
	TotalHours    float64   `db:"total_hours"`
}

type aggregateSeasonTableModel struct {
	ID            int64         `db:"id"`
	ParticipantID int64         `db:"participant_id"`
	SeasonID      int64         `db:"season_id"`
	Role          string        `db:"role"`
	PersonalTotal float64       `db:"personal_total"`
	TeamTotal     float64       `db:"team_total"`
	Total         float64       `db:"total"`
	Target        float64       `db:"target"`
	TargetPercent float64       `db:"target_percent"`
	RankInGroup   sql.NullInt32 `db:"rank_in_group"`
	CaptainRank   sql.NullInt32 `db:"captain_rank"`
	UpdatedAt     time.Time     `db:"updated_at"`
}

type aggregateSeasonInsertModel struct {
	ParticipantID int64   `db:"participant_id"`
	SeasonID      int64   `db:"season_id"`
	Role          string  `db:"role"`
	PersonalTotal float64 `db:"personal_total"`
	TeamTotal     float64 `db:"team_total"`
	Total         float64 `db:"total"`
	Target        float64 `db:"target"`
	TargetPercent float64 `db:"target_percent"`
}

type auditTableModel struct {
	ID         string        `db:"id"`
	ActorID    sql.NullInt64 `db:"actor_id"`
	Action     string        `db:"action"`
	EntityType string        `db:"entity_type"`
	EntityID   int64         `db:"entity_id"`
	Payload    []byte        `db:"payload"`
	CreatedAt  time.Time     `db:"created_at"`
}

type transitionTableModel struct {
	SeasonID  int64     `db:"season_id"`
	Mode      string    `db:"mode"`
	Result    string    `db:"result"`
	AppliedAt time.Time `db:"applied_at"`
}

type waitlistTableModel struct {
	ID       int64     `db:"id"`
	Phone    string    `db:"phone"`
	FullName string    `db:"full_name"`
	Status   string    `db:"status"`
	AddedAt  time.Time `db:"added_at"`
}

type waitlistInsertModel struct {
	Phone    string `db:"phone"`
	FullName string `db:"full_name"`
	Status   string `db:"status"`
}

type importTableModel struct {
	ID         int64         `db:"id"`
	FileName   string        `db:"file_name"`
	UploadedBy sql.NullInt64 `db:"uploaded_by"`
	RowsCount  int           `db:"rows_count"`
	Written    int           `db:"written_count"`
	Status     string        `db:"status"`
	Errors     string        `db:"errors"`
	UploadedAt time.Time     `db:"uploaded_at"`
}

type importInsertModel struct {
	FileName   string        `db:"file_name"`
	UploadedBy sql.NullInt64 `db:"uploaded_by"`
	RowsCount  int           `db:"rows_count"`
	Written    int           `db:"written_count"`
	Status     string        `db:"status"`
	Errors     string        `db:"errors"`
}
