package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"rydin/internal/domain/bucket"
	"rydin/internal/domain/ride"
	"rydin/internal/domain/user"
	"rydin/internal/ports"
)

// RideSummary composes the shareable view of a ride for one of its riders.
func (service *rideService) RideSummary(ctx context.Context, rideID, userID string) (ports.RideSummary, error) {
	var summary ports.RideSummary
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		summary, err = service.buildSummary(txCtx, rideID, userID)
		return err
	})
	if err != nil {
		return ports.RideSummary{}, classify(err)
	}
	return summary, nil
}

// ShareWithParent records that a rider shared the ride with their emergency
// contact and returns the message to send.
func (service *rideService) ShareWithParent(ctx context.Context, rideID, userID string) (ports.ShareResult, error) {
	corrID := generateCorrelationID(ctx)
	ctx = service.logger.WithRideID(ctx, rideID)
	sharedAt := service.now().UTC()

	var (
		summary ports.RideSummary
		contact *user.User
	)
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		if summary, err = service.buildSummary(txCtx, rideID, userID); err != nil {
			return err
		}

		// the sharer needs someone to share with
		if contact, err = service.userRepo.GetByID(txCtx, userID); err != nil {
			return err
		}
		if !contact.HasEmergencyContact() {
			return user.ErrNoEmergencyContact
		}

		if err := service.shareRepo.Record(txCtx, userID, rideID, sharedAt); err != nil {
			return err
		}
		return service.appendEvent(txCtx, rideID, ride.EventParentShared, map[string]any{
			"user_id": userID,
		})
	})
	if err != nil {
		err = classify(err)
		service.logger.Warn(ctx, "parent_share_failed", "Failed to share ride with emergency contact", err, map[string]any{
			"user_id":    userID,
			"request_id": corrID,
		})
		return ports.ShareResult{}, err
	}

	service.logger.Info(ctx, "parent_shared", "Ride shared with emergency contact", map[string]any{
		"user_id":    userID,
		"request_id": corrID,
	})

	return ports.ShareResult{
		Summary:      summary,
		Message:      FormatSummaryMessage(summary),
		ContactName:  contact.EmergencyContactName,
		ContactPhone: contact.EmergencyContactPhone,
		SharedAt:     sharedAt,
	}, nil
}

// shareHistoryLimit is how many past shares a rider sees.
const shareHistoryLimit = 10

// ShareHistory lists the rider's latest parent shares, newest first.
func (service *rideService) ShareHistory(ctx context.Context, userID string) ([]ports.ParentShare, error) {
	var shares []ports.ParentShare
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		shares, err = service.shareRepo.ListByUser(txCtx, userID, shareHistoryLimit)
		return err
	})
	if err != nil {
		return nil, classify(err)
	}
	if shares == nil {
		shares = []ports.ParentShare{}
	}
	return shares, nil
}

// buildSummary must run inside a unit of work.
func (service *rideService) buildSummary(ctx context.Context, rideID, userID string) (ports.RideSummary, error) {
	r, err := service.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return ports.RideSummary{}, err
	}
	members, err := service.memberRepo.ListByRide(ctx, rideID)
	if err != nil {
		return ports.RideSummary{}, err
	}

	// only riders on the ride may see who else is on it
	participant := r.IsHost(userID)
	for _, m := range members {
		participant = participant || m.UserID == userID
	}
	if !participant {
		return ports.RideSummary{}, ride.ErrNotParticipant
	}

	passengers := make([]ports.Passenger, 0, len(members)+1)
	if r.HostID != bucket.SystemHostID {
		p, err := service.passenger(ctx, r.HostID, true)
		if err != nil {
			return ports.RideSummary{}, err
		}
		passengers = append(passengers, p)
	}
	for _, m := range members {
		p, err := service.passenger(ctx, m.UserID, false)
		if err != nil {
			return ports.RideSummary{}, err
		}
		passengers = append(passengers, p)
	}

	return ports.RideSummary{
		RideID:        r.ID,
		Source:        r.Source,
		Destination:   r.Destination,
		Date:          r.Date,
		Time:          r.Time,
		EstimatedFare: r.EstimatedFare,
		FarePerPerson: r.FarePerPerson(),
		GirlsOnly:     r.GirlsOnly,
		Passengers:    passengers,
	}, nil
}

func (service *rideService) passenger(ctx context.Context, userID string, host bool) (ports.Passenger, error) {
	u, err := service.userRepo.GetByID(ctx, userID)
	if errors.Is(err, user.ErrUserNotFound) {
		return ports.Passenger{UserID: userID, Name: "Unknown rider", IsHost: host}, nil
	}
	if err != nil {
		return ports.Passenger{}, err
	}
	return ports.Passenger{
		UserID:     u.ID,
		Name:       u.Name,
		Phone:      u.Phone,
		TrustScore: u.TrustScore,
		IsHost:     host,
	}, nil
}

// FormatSummaryMessage renders a ride summary as plain text for a parent or guardian.
func FormatSummaryMessage(s ports.RideSummary) string {
	var b strings.Builder
	b.WriteString("Rydin ride details\n\n")
	fmt.Fprintf(&b, "From: %s\n", s.Source)
	fmt.Fprintf(&b, "To: %s\n", s.Destination)
	fmt.Fprintf(&b, "Date: %s\n", s.Date)
	fmt.Fprintf(&b, "Time: %s\n", s.Time)
	fmt.Fprintf(&b, "Fare per person: Rs %.2f (total Rs %.2f)\n", s.FarePerPerson, s.EstimatedFare)
	if s.GirlsOnly {
		b.WriteString("Girls-only ride\n")
	}

	b.WriteString("\nPassengers:\n")
	for _, p := range s.Passengers {
		role := ""
		if p.IsHost {
			role = " (host)"
		}
		fmt.Fprintf(&b, "- %s%s, trust %.1f", p.Name, role, p.TrustScore)
		if p.Phone != "" {
			fmt.Fprintf(&b, ", %s", p.Phone)
		}
		b.WriteString("\n")
	}
	return b.String()
}
