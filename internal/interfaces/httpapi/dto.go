package httpapi

import (
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/pyramid-league/internal/domain/aggregate"
	"github.com/riskibarqy/pyramid-league/internal/domain/audit"
	"github.com/riskibarqy/pyramid-league/internal/domain/fraud"
	"github.com/riskibarqy/pyramid-league/internal/domain/hierarchy"
	"github.com/riskibarqy/pyramid-league/internal/domain/hours"
	"github.com/riskibarqy/pyramid-league/internal/domain/season"
	"github.com/riskibarqy/pyramid-league/internal/domain/transition"
	"github.com/riskibarqy/pyramid-league/internal/domain/waitlist"
	"github.com/riskibarqy/pyramid-league/internal/usecase"
)

type createSeasonRequest struct {
	Name             string  `json:"name" validate:"required,max=120"`
	StartDate        string  `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate          string  `json:"endDate" validate:"required,datetime=2006-01-02"`
	DailyTargetHours float64 `json:"dailyTargetHours" validate:"gte=0,lte=24"`
}

type importHoursRequest struct {
	FileName   string               `json:"fileName" validate:"max=255"`
	UploadedBy *int64               `json:"uploadedBy" validate:"omitempty,gt=0"`
	Records    []hoursRecordRequest `json:"records" validate:"required,min=1,max=10000,dive"`
}

type hoursRecordRequest struct {
	ParticipantID int64   `json:"participantId" validate:"required,gt=0"`
	WorkDate      string  `json:"workDate" validate:"required,datetime=2006-01-02"`
	Hours         float64 `json:"hours" validate:"gte=0,lte=24"`
}

type joinWaitlistRequest struct {
	Phone    string `json:"phone" validate:"required,max=32"`
	FullName string `json:"fullName" validate:"max=120"`
}

type seasonDTO struct {
	ID               int64   `json:"id"`
	Name             string  `json:"name"`
	StartDate        string  `json:"startDate"`
	EndDate          string  `json:"endDate"`
	DailyTargetHours float64 `json:"dailyTargetHours"`
	DaysCount        int     `json:"daysCount"`
	UnitTarget       float64 `json:"unitTarget"`
	Status           string  `json:"status"`
}

type moveDTO struct {
	ParticipantID int64  `json:"participantId"`
	From          string `json:"from"`
	To            string `json:"to"`
}

type keptDTO struct {
	ParticipantID int64  `json:"participantId"`
	Role          string `json:"role"`
}

type transitionDTO struct {
	Mode       string    `json:"mode"`
	Promotions []moveDTO `json:"promotions"`
	Demotions  []moveDTO `json:"demotions"`
	Maintained []keptDTO `json:"maintained"`
}

type closeSeasonDTO struct {
	Season        seasonDTO     `json:"season"`
	Transition    transitionDTO `json:"transition"`
	Notifications int           `json:"notifications"`
	Resumed       bool          `json:"resumed"`
}

type standingDTO struct {
	PersonalTotal float64 `json:"personalTotal"`
	TeamTotal     float64 `json:"teamTotal"`
	Total         float64 `json:"total"`
	Target        float64 `json:"target"`
	TargetPercent float64 `json:"targetPercent"`
	RankInGroup   *int    `json:"rankInGroup"`
	CaptainRank   *int    `json:"captainRank"`
}

type nodeDTO struct {
	ParticipantID int64        `json:"participantId"`
	Name          string       `json:"name"`
	Role          string       `json:"role"`
	GroupIndex    *int         `json:"groupIndex,omitempty"`
	Standing      *standingDTO `json:"standing"`
}

type captainNodeDTO struct {
	nodeDTO
	SubcaptainCount int `json:"subcaptainCount"`
	MemberCount     int `json:"memberCount"`
}

type orphanDTO struct {
	ParticipantID int64  `json:"participantId"`
	Role          string `json:"role"`
	ParentID      *int64 `json:"parentId"`
	Reason        string `json:"reason"`
}

type treeDTO struct {
	SeasonID int64            `json:"seasonId"`
	Leader   *nodeDTO         `json:"leader"`
	Captains []captainNodeDTO `json:"captains"`
	Orphans  []orphanDTO      `json:"orphans"`
}

type tierStatDTO struct {
	Role    string `json:"role"`
	Current int    `json:"current"`
	Max     int    `json:"max"`
}

type leaderboardEntryDTO struct {
	Position int `json:"position"`
	nodeDTO
}

type fraudAlertDTO struct {
	ID            string         `json:"id"`
	ParticipantID int64          `json:"participantId"`
	Phone         string         `json:"phone"`
	Type          string         `json:"type"`
	Severity      string         `json:"severity"`
	Message       string         `json:"message"`
	Date          string         `json:"date"`
	Data          map[string]any `json:"data,omitempty"`
}

type auditEntryDTO struct {
	ID         string `json:"id"`
	ActorID    *int64 `json:"actorId"`
	Action     string `json:"action"`
	EntityType string `json:"entityType"`
	EntityID   int64  `json:"entityId"`
	Payload    any    `json:"payload"`
	CreatedAt  string `json:"createdAt"`
}

type participantDTO struct {
	ID             int64   `json:"id"`
	Phone          string  `json:"phone"`
	FullName       string  `json:"fullName"`
	TelegramUserID *int64  `json:"telegramUserId"`
	Status         string  `json:"status"`
	Role           *string `json:"role"`
}

type participantListDTO struct {
	SeasonID     *int64           `json:"seasonId"`
	Participants []participantDTO `json:"participants"`
}

type waitlistEntryDTO struct {
	ID       int64  `json:"id"`
	Phone    string `json:"phone"`
	FullName string `json:"fullName"`
	Status   string `json:"status"`
	AddedAt  string `json:"addedAt"`
}

type waitlistDTO struct {
	Pending int                `json:"pending"`
	Entries []waitlistEntryDTO `json:"entries"`
}

type importDTO struct {
	ID         int64    `json:"id"`
	FileName   string   `json:"fileName"`
	UploadedBy *int64   `json:"uploadedBy"`
	RowsCount  int      `json:"rowsCount"`
	Written    int      `json:"written"`
	Status     string   `json:"status"`
	Errors     []string `json:"errors"`
	UploadedAt string   `json:"uploadedAt"`
}

type dashboardStatsDTO struct {
	SeasonID     *int64  `json:"seasonId"`
	Date         string  `json:"date"`
	Participants int     `json:"participants"`
	DailyHours   float64 `json:"dailyHours"`
	GoalPercent  float64 `json:"goalPercent"`
	AlertsCount  *int    `json:"alertsCount"`
}

func seasonToDTO(v season.Season) seasonDTO {
	return seasonDTO{
		ID:               v.ID,
		Name:             v.Name,
		StartDate:        v.StartDate.Format(season.DateLayout),
		EndDate:          v.EndDate.Format(season.DateLayout),
		DailyTargetHours: v.DailyTargetHours,
		DaysCount:        v.DaysCount,
		UnitTarget:       v.UnitTarget(),
		Status:           string(v.Status),
	}
}

func transitionToDTO(v transition.Result) transitionDTO {
	out := transitionDTO{
		Mode:       string(v.Mode),
		Promotions: make([]moveDTO, 0, len(v.Promotions)),
		Demotions:  make([]moveDTO, 0, len(v.Demotions)),
		Maintained: make([]keptDTO, 0, len(v.Maintained)),
	}
	for _, m := range v.Promotions {
		out.Promotions = append(out.Promotions, moveDTO{ParticipantID: m.ParticipantID, From: m.From.String(), To: m.To.String()})
	}
	for _, m := range v.Demotions {
		out.Demotions = append(out.Demotions, moveDTO{ParticipantID: m.ParticipantID, From: m.From.String(), To: m.To.String()})
	}
	for _, k := range v.Maintained {
		out.Maintained = append(out.Maintained, keptDTO{ParticipantID: k.ParticipantID, Role: k.Role.String()})
	}
	return out
}

func standingToDTO(v *aggregate.Season) *standingDTO {
	if v == nil {
		return nil
	}
	return &standingDTO{
		PersonalTotal: v.PersonalTotal,
		TeamTotal:     v.TeamTotal,
		Total:         v.Total,
		Target:        v.Target,
		TargetPercent: v.TargetPercent,
		RankInGroup:   v.RankInGroup,
		CaptainRank:   v.CaptainRank,
	}
}

func nodeToDTO(v usecase.Node) nodeDTO {
	return nodeDTO{
		ParticipantID: v.ParticipantID,
		Name:          v.Name,
		Role:          v.Role.String(),
		GroupIndex:    v.GroupIndex,
		Standing:      standingToDTO(v.Aggregate),
	}
}

func treeToDTO(v usecase.TreeView) treeDTO {
	out := treeDTO{
		SeasonID: v.SeasonID,
		Captains: make([]captainNodeDTO, 0, len(v.Captains)),
		Orphans:  make([]orphanDTO, 0, len(v.Orphans)),
	}
	if v.Leader != nil {
		leader := nodeToDTO(*v.Leader)
		out.Leader = &leader
	}
	for _, c := range v.Captains {
		out.Captains = append(out.Captains, captainNodeDTO{
			nodeDTO:         nodeToDTO(c.Node),
			SubcaptainCount: c.SubcaptainCount,
			MemberCount:     c.MemberCount,
		})
	}
	for _, o := range v.Orphans {
		out.Orphans = append(out.Orphans, orphanToDTO(o))
	}
	return out
}

func orphanToDTO(o hierarchy.Orphan) orphanDTO {
	return orphanDTO{
		ParticipantID: o.ParticipantID,
		Role:          o.Role.String(),
		ParentID:      o.ParentID,
		Reason:        string(o.Reason),
	}
}

func fraudAlertToDTO(v fraud.Alert) fraudAlertDTO {
	return fraudAlertDTO{
		ID:            v.ID,
		ParticipantID: v.ParticipantID,
		Phone:         v.Phone,
		Type:          string(v.Type),
		Severity:      string(v.Severity),
		Message:       v.Message,
		Date:          v.Date.Format(season.DateLayout),
		Data:          v.Data,
	}
}

func auditEntryToDTO(v audit.Entry) auditEntryDTO {
	var payload any
	if len(v.Payload) > 0 {
		if err := sonic.Unmarshal(v.Payload, &payload); err != nil {
			payload = string(v.Payload)
		}
	}
	return auditEntryDTO{
		ID:         v.ID,
		ActorID:    v.ActorID,
		Action:     v.Action,
		EntityType: v.EntityType,
		EntityID:   v.EntityID,
		Payload:    payload,
		CreatedAt:  v.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func participantListToDTO(v usecase.ParticipantList) participantListDTO {
	out := participantListDTO{Participants: make([]participantDTO, 0, len(v.Participants))}
	if v.SeasonID > 0 {
		id := v.SeasonID
		out.SeasonID = &id
	}
	for _, p := range v.Participants {
		item := participantDTO{
			ID:             p.ID,
			Phone:          p.Phone,
			FullName:       p.FullName,
			TelegramUserID: p.TelegramUserID,
			Status:         string(p.Status),
		}
		if p.Role != nil {
			role := p.Role.String()
			item.Role = &role
		}
		out.Participants = append(out.Participants, item)
	}
	return out
}

func waitlistEntryToDTO(v waitlist.Entry) waitlistEntryDTO {
	return waitlistEntryDTO{
		ID:       v.ID,
		Phone:    v.Phone,
		FullName: v.FullName,
		Status:   string(v.Status),
		AddedAt:  v.AddedAt.UTC().Format(time.RFC3339),
	}
}

func importToDTO(v hours.Import) importDTO {
	errs := v.Errors
	if errs == nil {
		errs = []string{}
	}
	return importDTO{
		ID:         v.ID,
		FileName:   v.FileName,
		UploadedBy: v.UploadedBy,
		RowsCount:  v.RowsCount,
		Written:    v.Written,
		Status:     string(v.Status),
		Errors:     errs,
		UploadedAt: v.UploadedAt.UTC().Format(time.RFC3339),
	}
}
