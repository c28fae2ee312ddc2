package storage

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/example/foodshare/internal/apperr"
	"github.com/example/foodshare/internal/models"
)

const volunteerColumns = `id, ngo_id, ngo_name, name, email, phone, address, availability, skills,
status, current_assignment, total_assignments, completed_assignments, rating, created_at`

func (p *Postgres) InsertVolunteer(ctx context.Context, v *models.Volunteer) error {
	skills, err := marshalJSON(v.Skills)
	if err != nil {
		return internalErr(err)
	}
	_, err = p.db.ExecContext(ctx, `INSERT INTO volunteers(`+volunteerColumns+`)
VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		v.ID, v.NGOID, v.NGOName, v.Name, v.Email, v.Phone, v.Address, v.Availability, skills,
		v.Status, nullString(v.CurrentAssignment), v.TotalAssignments, v.CompletedAssignments,
		v.Rating, v.CreatedAt)
	if err != nil {
		return internalErr(err)
	}
	return nil
}

func (p *Postgres) GetVolunteer(ctx context.Context, id, ngoID string) (*models.Volunteer, error) {
	row := p.db.QueryRowContext(ctx, `SELECT `+volunteerColumns+` FROM volunteers
WHERE id=$1 AND ngo_id=$2`, id, ngoID)
	v, err := scanVolunteer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.New(apperr.NotFound, "volunteer not found")
	}
	if err != nil {
		return nil, internalErr(err)
	}
	return v, nil
}

func (p *Postgres) ListVolunteers(ctx context.Context, ngoID string) ([]*models.Volunteer, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT `+volunteerColumns+` FROM volunteers
WHERE ngo_id=$1 ORDER BY created_at DESC`, ngoID)
	if err != nil {
		return nil, internalErr(err)
	}
	defer rows.Close()
	var out []*models.Volunteer
	for rows.Next() {
		v, err := scanVolunteer(rows)
		if err != nil {
			return nil, internalErr(err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, internalErr(err)
	}
	return out, nil
}

func (p *Postgres) UpdateVolunteer(ctx context.Context, v *models.Volunteer) error {
	skills, err := marshalJSON(v.Skills)
	if err != nil {
		return internalErr(err)
	}
	res, err := p.db.ExecContext(ctx, `UPDATE volunteers
SET name=$3, email=$4, phone=$5, address=$6, availability=$7, skills=$8, status=$9, rating=$10
WHERE id=$1 AND ngo_id=$2`,
		v.ID, v.NGOID, v.Name, v.Email, v.Phone, v.Address, v.Availability, skills, v.Status, v.Rating)
	if err != nil {
		return internalErr(err)
	}
	return requireRow(res, "volunteer not found")
}

func (p *Postgres) DeleteVolunteer(ctx context.Context, id, ngoID string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM volunteers WHERE id=$1 AND ngo_id=$2`, id, ngoID)
	if err != nil {
		return internalErr(err)
	}
	return requireRow(res, "volunteer not found")
}

func (p *Postgres) BeginAssignment(ctx context.Context, id, ngoID, assignmentID string) (*models.Volunteer, error) {
	res, err := p.db.ExecContext(ctx, `UPDATE volunteers
SET status='on-assignment', current_assignment=$3, total_assignments=total_assignments+1
WHERE id=$1 AND ngo_id=$2 AND status <> 'on-assignment'`, id, ngoID, assignmentID)
	if err != nil {
		return nil, internalErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, internalErr(err)
	}
	if n == 0 {
		if _, err := p.GetVolunteer(ctx, id, ngoID); err != nil {
			return nil, err // NotFound
		}
		return nil, apperr.New(apperr.Conflict, "volunteer is already on an assignment")
	}
	return p.GetVolunteer(ctx, id, ngoID)
}

func (p *Postgres) RevertAssignment(ctx context.Context, id, assignmentID string, prev models.VolunteerStatus) error {
	_, err := p.db.ExecContext(ctx, `UPDATE volunteers
SET status=$3, current_assignment=NULL, total_assignments=total_assignments-1
WHERE id=$1 AND current_assignment=$2`, id, assignmentID, prev)
	if err != nil {
		return internalErr(err)
	}
	return nil
}

func (p *Postgres) EndAssignment(ctx context.Context, assignmentID string, completed bool) error {
	bump := 0
	if completed {
		bump = 1
	}
	// zero rows means the volunteer was deleted; the assignment record
	// keeps its name snapshot either way
	_, err := p.db.ExecContext(ctx, `UPDATE volunteers
SET status='active', current_assignment=NULL, completed_assignments=completed_assignments+$2
WHERE current_assignment=$1`, assignmentID, bump)
	if err != nil {
		return internalErr(err)
	}
	return nil
}

const assignmentColumns = `id, ngo_id, volunteer_id, volunteer_name, donation_id, task_type,
task_description, pickup_location, distribution_location, scheduled_date, estimated_duration,
status, priority, notes, notification_sent, accepted_at, started_at, completed_at, feedback, created_at`

func (p *Postgres) InsertAssignment(ctx context.Context, a *models.Assignment) error {
	pickup, err := marshalJSON(a.PickupLocation)
	if err != nil {
		return internalErr(err)
	}
	dist, err := marshalJSON(a.DistributionLocation)
	if err != nil {
		return internalErr(err)
	}
	fb, err := marshalJSON(a.Feedback)
	if err != nil {
		return internalErr(err)
	}
	_, err = p.db.ExecContext(ctx, `INSERT INTO assignments(`+assignmentColumns+`)
VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`,
		a.ID, a.NGOID, a.VolunteerID, a.VolunteerName, nullString(a.DonationID), a.TaskType,
		a.TaskDescription, pickup, dist, a.ScheduledDate, a.EstimatedDuration,
		a.Status, a.Priority, a.Notes, a.NotificationSent, nullTime(a.AcceptedAt),
		nullTime(a.StartedAt), nullTime(a.CompletedAt), fb, a.CreatedAt)
	if err != nil {
		return internalErr(err)
	}
	return nil
}

func (p *Postgres) GetAssignment(ctx context.Context, id, ngoID string) (*models.Assignment, error) {
	row := p.db.QueryRowContext(ctx, `SELECT `+assignmentColumns+` FROM assignments
WHERE id=$1 AND ngo_id=$2`, id, ngoID)
	a, err := scanAssignment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.New(apperr.NotFound, "assignment not found")
	}
	if err != nil {
		return nil, internalErr(err)
	}
	return a, nil
}

func (p *Postgres) ListAssignments(ctx context.Context, ngoID string) ([]*models.Assignment, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT `+assignmentColumns+` FROM assignments
WHERE ngo_id=$1 ORDER BY scheduled_date DESC`, ngoID)
	if err != nil {
		return nil, internalErr(err)
	}
	defer rows.Close()
	var out []*models.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, internalErr(err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, internalErr(err)
	}
	return out, nil
}

func (p *Postgres) TransitionAssignment(ctx context.Context, id string, from, next models.AssignmentStatus, at time.Time, fb *models.Feedback) (*models.Assignment, error) {
	stampCol := ""
	switch next {
	case models.AssignmentAccepted:
		stampCol = "accepted_at"
	case models.AssignmentInProgress:
		stampCol = "started_at"
	case models.AssignmentCompleted:
		stampCol = "completed_at"
	}
	query := `UPDATE assignments SET status=$3`
	args := []any{id, from, next}
	if stampCol != "" {
		query += `, ` + stampCol + `=$4`
		args = append(args, at)
	}
	if fb != nil {
		fbJSON, err := marshalJSON(fb)
		if err != nil {
			return nil, internalErr(err)
		}
		query += `, feedback=$` + strconv.Itoa(len(args)+1)
		args = append(args, fbJSON)
	}
	query += ` WHERE id=$1 AND status=$2`
	res, err := p.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, internalErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, internalErr(err)
	}
	if n == 0 {
		var status models.AssignmentStatus
		err := p.db.QueryRowContext(ctx, `SELECT status FROM assignments WHERE id=$1`, id).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.NotFound, "assignment not found")
		}
		if err != nil {
			return nil, internalErr(err)
		}
		return nil, apperr.Newf(apperr.Conflict, "assignment is %s, expected %s", status, from)
	}
	row := p.db.QueryRowContext(ctx, `SELECT `+assignmentColumns+` FROM assignments WHERE id=$1`, id)
	a, err := scanAssignment(row)
	if err != nil {
		return nil, internalErr(err)
	}
	return a, nil
}

func (p *Postgres) RestoreAssignment(ctx context.Context, a *models.Assignment) error {
	fb, err := marshalJSON(a.Feedback)
	if err != nil {
		return internalErr(err)
	}
	res, err := p.db.ExecContext(ctx, `UPDATE assignments
SET status=$2, accepted_at=$3, started_at=$4, completed_at=$5, feedback=$6
WHERE id=$1`,
		a.ID, a.Status, nullTime(a.AcceptedAt), nullTime(a.StartedAt), nullTime(a.CompletedAt), fb)
	if err != nil {
		return internalErr(err)
	}
	return requireRow(res, "assignment not found")
}

func requireRow(res sql.Result, notFoundMsg string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return internalErr(err)
	}
	if n == 0 {
		return apperr.New(apperr.NotFound, notFoundMsg)
	}
	return nil
}

func scanVolunteer(row rowScanner) (*models.Volunteer, error) {
	var v models.Volunteer
	var skills []byte
	var current sql.NullString
	err := row.Scan(&v.ID, &v.NGOID, &v.NGOName, &v.Name, &v.Email, &v.Phone, &v.Address,
		&v.Availability, &skills, &v.Status, &current, &v.TotalAssignments,
		&v.CompletedAssignments, &v.Rating, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	v.CurrentAssignment = current.String
	if err := unmarshalJSON(skills, &v.Skills); err != nil {
		return nil, err
	}
	if v.Skills == nil {
		v.Skills = []string{}
	}
	return &v, nil
}

func scanAssignment(row rowScanner) (*models.Assignment, error) {
	var a models.Assignment
	var donationID sql.NullString
	var pickup, dist, fb []byte
	var acceptedAt, startedAt, completedAt sql.NullTime
	err := row.Scan(&a.ID, &a.NGOID, &a.VolunteerID, &a.VolunteerName, &donationID, &a.TaskType,
		&a.TaskDescription, &pickup, &dist, &a.ScheduledDate, &a.EstimatedDuration,
		&a.Status, &a.Priority, &a.Notes, &a.NotificationSent, &acceptedAt, &startedAt,
		&completedAt, &fb, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	a.DonationID = donationID.String
	a.AcceptedAt = timePtr(acceptedAt)
	a.StartedAt = timePtr(startedAt)
	a.CompletedAt = timePtr(completedAt)
	if len(pickup) > 0 {
		var l models.Location
		if err := unmarshalJSON(pickup, &l); err != nil {
			return nil, err
		}
		a.PickupLocation = &l
	}
	if len(dist) > 0 {
		var l models.Location
		if err := unmarshalJSON(dist, &l); err != nil {
			return nil, err
		}
		a.DistributionLocation = &l
	}
	if len(fb) > 0 {
		var f models.Feedback
		if err := unmarshalJSON(fb, &f); err != nil {
			return nil, err
		}
		a.Feedback = &f
	}
	return &a, nil
}
