package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sahan/donkeywatch/internal/model"
)

type LeaderboardRepository interface {
	CountsByVehicleType(ctx context.Context) ([]model.VehicleTypeCount, error)
	LatestLocations(ctx context.Context) ([]model.VehicleLocation, error)
	ValidatedByVehicle(ctx context.Context, vehicleNumber string) ([]model.ViolationReport, error)
}

// LeaderboardService projects validated reports into the public worst-driver
// ranking. Nothing here mutates state; every call recomputes from the store.
type LeaderboardService struct {
	repo LeaderboardRepository
	now  func() time.Time
}

func NewLeaderboardService(repo LeaderboardRepository) *LeaderboardService {
	return &LeaderboardService{repo: repo, now: time.Now}
}

func (s *LeaderboardService) Leaderboard(ctx context.Context) (*model.Leaderboard, error) {
	counts, err := s.repo.CountsByVehicleType(ctx)
	if err != nil {
		return nil, err
	}
	locations, err := s.repo.LatestLocations(ctx)
	if err != nil {
		return nil, err
	}

	drivers := rankDrivers(counts, locations)

	board := &model.Leaderboard{
		Drivers:     drivers,
		GeneratedAt: s.now(),
	}
	for _, d := range drivers {
		board.TotalViolations += d.Violations
		board.TotalPoints += d.Points
	}
	return board, nil
}

// DriverReports returns one vehicle's validated reports for the public driver
// page linked from the leaderboard.
func (s *LeaderboardService) DriverReports(ctx context.Context, vehicleNumber string) ([]model.ViolationReport, error) {
	vehicle := strings.ToUpper(strings.TrimSpace(vehicleNumber))
	if vehicle == "" {
		return nil, fmt.Errorf("%w: vehicle number is required", ErrInvalidInput)
	}
	return s.repo.ValidatedByVehicle(ctx, vehicle)
}

// rankDrivers folds per-type counts into one entry per vehicle and assigns a
// contiguous 1..N rank by descending violations. Ties order by more recent
// last violation, then vehicle number.
func rankDrivers(counts []model.VehicleTypeCount, locations []model.VehicleLocation) []model.WorstDriver {
	byVehicle := make(map[string]*model.WorstDriver)
	order := make([]string, 0)

	for _, row := range counts {
		driver, ok := byVehicle[row.VehicleNumber]
		if !ok {
			driver = &model.WorstDriver{VehicleNumber: row.VehicleNumber}
			byVehicle[row.VehicleNumber] = driver
			order = append(order, row.VehicleNumber)
		}
		driver.Violations += row.Count
		driver.Points -= int64(row.Type.Severity()) * row.Count
		if row.LastAt.After(driver.LastViolation) {
			driver.LastViolation = row.LastAt
		}
	}

	for _, loc := range locations {
		if driver, ok := byVehicle[loc.VehicleNumber]; ok {
			driver.Location = loc.Location
		}
	}

	drivers := make([]model.WorstDriver, 0, len(order))
	for _, vehicle := range order {
		drivers = append(drivers, *byVehicle[vehicle])
	}

	sort.SliceStable(drivers, func(i, j int) bool {
		if drivers[i].Violations != drivers[j].Violations {
			return drivers[i].Violations > drivers[j].Violations
		}
		if !drivers[i].LastViolation.Equal(drivers[j].LastViolation) {
			return drivers[i].LastViolation.After(drivers[j].LastViolation)
		}
		return drivers[i].VehicleNumber < drivers[j].VehicleNumber
	})

	for i := range drivers {
		drivers[i].Rank = i + 1
	}
	return drivers
}
