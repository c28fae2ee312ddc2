package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/example/foodshare/internal/apperr"
	"github.com/example/foodshare/internal/models"
)

const donationColumns = `id, restaurant_id, restaurant_name, food_type, quantity, unit, description,
pickup_address, expiry_time, status, claimed_by, claimed_by_name, claimed_at, completed_at,
meals_served, beneficiaries, acknowledgement, created_at`

func (p *Postgres) InsertDonation(ctx context.Context, d *models.Donation) error {
	ack, err := marshalJSON(d.Acknowledgement)
	if err != nil {
		return internalErr(err)
	}
	_, err = p.db.ExecContext(ctx, `INSERT INTO donations(`+donationColumns+`)
VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`,
		d.ID, d.RestaurantID, d.RestaurantName, d.FoodType, d.Quantity, d.Unit, d.Description,
		d.PickupAddress, d.ExpiryTime, d.Status, nullString(d.ClaimedBy), nullString(d.ClaimedByName),
		nullTime(d.ClaimedAt), nullTime(d.CompletedAt), d.MealsServed, d.Beneficiaries, ack, d.CreatedAt)
	if err != nil {
		return internalErr(err)
	}
	return nil
}

func (p *Postgres) GetDonation(ctx context.Context, id string) (*models.Donation, error) {
	row := p.db.QueryRowContext(ctx, `SELECT `+donationColumns+` FROM donations WHERE id=$1`, id)
	d, err := scanDonation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.New(apperr.NotFound, "donation not found")
	}
	if err != nil {
		return nil, internalErr(err)
	}
	return d, nil
}

func (p *Postgres) ListByRestaurant(ctx context.Context, restaurantID string) ([]*models.Donation, error) {
	return p.listDonations(ctx, `SELECT `+donationColumns+` FROM donations
WHERE restaurant_id=$1 ORDER BY created_at DESC`, restaurantID)
}

func (p *Postgres) ListAvailable(ctx context.Context, now time.Time) ([]*models.Donation, error) {
	return p.listDonations(ctx, `SELECT `+donationColumns+` FROM donations
WHERE status='available' AND expiry_time > $1 ORDER BY created_at DESC`, now)
}

func (p *Postgres) ListClaimedBy(ctx context.Context, ngoID string) ([]*models.Donation, error) {
	return p.listDonations(ctx, `SELECT `+donationColumns+` FROM donations
WHERE claimed_by=$1 ORDER BY claimed_at DESC`, ngoID)
}

func (p *Postgres) ClaimDonation(ctx context.Context, id, ngoID, ngoName string, at time.Time) (*models.Donation, error) {
	res, err := p.db.ExecContext(ctx, `UPDATE donations
SET status='claimed', claimed_by=$2, claimed_by_name=$3, claimed_at=$4
WHERE id=$1 AND status='available' AND expiry_time > $4`, id, ngoID, ngoName, at)
	if err != nil {
		return nil, internalErr(err)
	}
	if err := p.checkDonationUpdated(ctx, res, id, "donation is not available"); err != nil {
		return nil, err
	}
	return p.GetDonation(ctx, id)
}

func (p *Postgres) TransitionDonation(ctx context.Context, id string, from, next models.DonationStatus, at time.Time) (*models.Donation, error) {
	var res sql.Result
	var err error
	if next == models.DonationCompleted {
		res, err = p.db.ExecContext(ctx, `UPDATE donations SET status=$3, completed_at=$4
WHERE id=$1 AND status=$2`, id, from, next, at)
	} else {
		res, err = p.db.ExecContext(ctx, `UPDATE donations SET status=$3
WHERE id=$1 AND status=$2`, id, from, next)
	}
	if err != nil {
		return nil, internalErr(err)
	}
	if err := p.checkDonationUpdated(ctx, res, id, "donation is no longer "+string(from)); err != nil {
		return nil, err
	}
	return p.GetDonation(ctx, id)
}

func (p *Postgres) AcknowledgeDonation(ctx context.Context, id, ngoID string, mealsServed, beneficiaries int, ack models.Acknowledgement, at time.Time) (*models.Donation, error) {
	ackJSON, err := marshalJSON(&ack)
	if err != nil {
		return nil, internalErr(err)
	}
	res, err := p.db.ExecContext(ctx, `UPDATE donations
SET status='completed', completed_at=$3, meals_served=$4, beneficiaries=$5, acknowledgement=$6
WHERE id=$1 AND claimed_by=$2 AND status='picked-up'`,
		id, ngoID, at, mealsServed, beneficiaries, ackJSON)
	if err != nil {
		return nil, internalErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, internalErr(err)
	}
	if n == 0 {
		// distinguish ownership misses from status races
		d, getErr := p.GetDonation(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		if d.ClaimedBy != ngoID {
			return nil, apperr.New(apperr.NotFound, "donation not found")
		}
		return nil, apperr.Newf(apperr.Conflict, "donation is %s, expected picked-up", d.Status)
	}
	return p.GetDonation(ctx, id)
}

func (p *Postgres) ExpireDonations(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := p.db.ExecContext(ctx, `UPDATE donations SET status='expired'
WHERE status='available' AND expiry_time < $1`, cutoff)
	if err != nil {
		return 0, internalErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, internalErr(err)
	}
	return int(n), nil
}

func (p *Postgres) checkDonationUpdated(ctx context.Context, res sql.Result, id, conflictMsg string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return internalErr(err)
	}
	if n > 0 {
		return nil
	}
	if _, err := p.GetDonation(ctx, id); err != nil {
		return err // NotFound
	}
	return apperr.New(apperr.Conflict, conflictMsg)
}

func (p *Postgres) listDonations(ctx context.Context, query string, args ...any) ([]*models.Donation, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, internalErr(err)
	}
	defer rows.Close()
	var out []*models.Donation
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, internalErr(err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, internalErr(err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDonation(row rowScanner) (*models.Donation, error) {
	var d models.Donation
	var claimedBy, claimedByName sql.NullString
	var claimedAt, completedAt sql.NullTime
	var ack []byte
	err := row.Scan(&d.ID, &d.RestaurantID, &d.RestaurantName, &d.FoodType, &d.Quantity, &d.Unit,
		&d.Description, &d.PickupAddress, &d.ExpiryTime, &d.Status, &claimedBy, &claimedByName,
		&claimedAt, &completedAt, &d.MealsServed, &d.Beneficiaries, &ack, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	d.ClaimedBy = claimedBy.String
	d.ClaimedByName = claimedByName.String
	d.ClaimedAt = timePtr(claimedAt)
	d.CompletedAt = timePtr(completedAt)
	if len(ack) > 0 {
		var a models.Acknowledgement
		if err := unmarshalJSON(ack, &a); err != nil {
			return nil, err
		}
		d.Acknowledgement = &a
	}
	return &d, nil
}
