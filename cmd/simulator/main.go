package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/anchor/internal/client"
	"github.com/ukydev/anchor/internal/geo"
	"github.com/ukydev/anchor/internal/models"
)

// City is a named starting point for simulated users.
type City struct {
	Name    string
	State   string
	Country string
	At      models.Coordinates
}

// Cities for realistic spread
var cities = []City{
	{"London", "England", "United Kingdom", models.Coordinates{Lat: 51.5074, Lng: -0.1278}},
	{"New York", "New York", "United States", models.Coordinates{Lat: 40.7128, Lng: -74.0060}},
	{"Madrid", "Madrid", "Spain", models.Coordinates{Lat: 40.4168, Lng: -3.7038}},
	{"Nicosia", "Nicosia", "Cyprus", models.Coordinates{Lat: 35.1856, Lng: 33.3823}},
	{"Bogotá", "Cundinamarca", "Colombia", models.Coordinates{Lat: 4.7110, Lng: -74.0721}},
	{"Paris", "Île-de-France", "France", models.Coordinates{Lat: 48.8566, Lng: 2.3522}},
	{"Istanbul", "Istanbul", "Türkiye", models.Coordinates{Lat: 41.0082, Lng: 28.9784}},
	{"Cardiff", "Wales", "United Kingdom", models.Coordinates{Lat: 51.4816, Lng: -3.1791}},
	{"Los Angeles", "California", "United States", models.Coordinates{Lat: 34.0522, Lng: -118.2437}},
	{"San Francisco", "California", "United States", models.Coordinates{Lat: 37.7749, Lng: -122.4194}},
	{"Berlin", "Berlin", "Germany", models.Coordinates{Lat: 52.5200, Lng: 13.4050}},
	{"Tokyo", "Tokyo", "Japan", models.Coordinates{Lat: 35.6762, Lng: 139.6503}},
	{"Sydney", "New South Wales", "Australia", models.Coordinates{Lat: -33.8688, Lng: 151.2093}},
	{"Singapore", "", "Singapore", models.Coordinates{Lat: 1.3521, Lng: 103.8198}},
	{"São Paulo", "São Paulo", "Brazil", models.Coordinates{Lat: -23.5505, Lng: -46.6333}},
	{"Toronto", "Ontario", "Canada", models.Coordinates{Lat: 43.6532, Lng: -79.3832}},
	{"Dubai", "Dubai", "United Arab Emirates", models.Coordinates{Lat: 25.2048, Lng: 55.2708}},
	{"Mumbai", "Maharashtra", "India", models.Coordinates{Lat: 19.0760, Lng: 72.8777}},
	{"Johannesburg", "Gauteng", "South Africa", models.Coordinates{Lat: -26.2041, Lng: 28.0473}},
	{"Melbourne", "Victoria", "Australia", models.Coordinates{Lat: -37.8136, Lng: 144.9631}},
}

// Settings controls a simulation run.
type Settings struct {
	APIURL   string
	Users    int
	Interval time.Duration
	Password string
	// StepMeters bounds how far a user wanders per tick.
	StepMeters float64
}

func loadSettings() Settings {
	s := Settings{
		APIURL:     "http://localhost:5000",
		Users:      10,
		Interval:   5 * time.Second,
		Password:   "simulated-pass",
		StepMeters: 300,
	}
	if v := os.Getenv("API_BASE_URL"); v != "" {
		s.APIURL = v
	}
	if v := os.Getenv("SIM_USERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			s.Users = n
		}
	}
	if v := os.Getenv("SIM_TICK_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			s.Interval = time.Duration(n) * time.Second
		}
	}
	if v := os.Getenv("SIM_PASSWORD"); len(v) >= 6 {
		s.Password = v
	}
	return s
}

// jitterLocation moves base by up to meters in each axis.
func jitterLocation(base models.Coordinates, meters float64) models.Coordinates {
	km := meters / 1000
	return geo.Offset(base, (rand.Float64()*2-1)*km, (rand.Float64()*2-1)*km)
}

func randomCity() City {
	return cities[rand.Intn(len(cities))]
}

// SimUser is one simulated account wandering around a city.
type SimUser struct {
	Username string
	City     City
	Position models.Coordinates
	API      *client.Client
	Map      *client.MapView
}

// enroll signs a simulated user up, or logs in when the account already
// exists from an earlier run.
func enroll(ctx context.Context, api *client.Client, username, password string, index int) error {
	_, err := api.Signup(ctx, models.SignupRequest{
		Name:     fmt.Sprintf("Sim User %d", index+1),
		Username: username,
		Email:    username + "@sim.anchor.local",
		Password: password,
		Avatar:   fmt.Sprintf("Avatar%d", index%5+1),
	})
	if err == nil {
		return nil
	}
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusConflict {
		return err
	}
	_, err = api.Login(ctx, models.LoginRequest{Username: username, Password: password})
	return err
}

func newSimUser(ctx context.Context, settings Settings, index int, httpClient *http.Client) (*SimUser, error) {
	username := fmt.Sprintf("sim_user_%d", index+1)
	api := client.New(settings.APIURL, client.NewSession(), httpClient)
	if err := enroll(ctx, api, username, settings.Password, index); err != nil {
		return nil, fmt.Errorf("enroll %s: %w", username, err)
	}
	city := randomCity()
	return &SimUser{
		Username: username,
		City:     city,
		// start close to the centre
		Position: jitterLocation(city.At, 500),
		API:      api,
		Map:      client.NewMapView(api, log.StandardLogger()),
	}, nil
}

func (u *SimUser) form() client.LocationForm {
	return client.LocationForm{
		City:      u.City.Name,
		State:     u.City.State,
		Country:   u.City.Country,
		PlaceName: u.Username + "'s spot",
	}
}

// step moves the user, stores the new position and renders who is around.
func (u *SimUser) step(ctx context.Context, stepMeters float64) error {
	u.Position = jitterLocation(u.Position, stepMeters)
	// keep users from drifting out of their city
	if geo.DistanceKm(u.City.At, u.Position) > 10 {
		u.Position = jitterLocation(u.City.At, 500)
	}

	loc, err := u.API.SetLocation(ctx, u.form().Payload(u.Position))
	if err != nil {
		return fmt.Errorf("set location: %w", err)
	}
	u.API.Session().SetLocation(loc)

	markers := u.Map.Render(ctx, u.Position.LngLat())
	log.WithFields(log.Fields{
		"username": u.Username,
		"city":     u.City.Name,
		"lat":      u.Position.Lat,
		"lng":      u.Position.Lng,
		"nearby":   len(markers),
		"state":    u.Map.State(),
	}).Info("Sent location")
	return nil
}

func simulateUser(ctx context.Context, u *SimUser, settings Settings) {
	tick := time.NewTicker(settings.Interval)
	defer tick.Stop()
	for {
		if err := u.step(ctx, settings.StepMeters); err != nil {
			log.WithError(err).WithField("username", u.Username).Error("Simulation step failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
		}
	}
}

func main() {
	_ = godotenv.Load()
	settings := loadSettings()

	log.WithFields(log.Fields{
		"users":    settings.Users,
		"api_url":  settings.APIURL,
		"interval": settings.Interval,
	}).Info("Starting location simulation")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpClient := &http.Client{Timeout: 10 * time.Second}
	users := make([]*SimUser, 0, settings.Users)
	for i := 0; i < settings.Users; i++ {
		u, err := newSimUser(ctx, settings, i, httpClient)
		if err != nil {
			log.WithError(err).Error("Failed to create simulated user")
			continue
		}
		users = append(users, u)
	}

	log.WithField("created_users", len(users)).Info("User creation completed")
	if len(users) == 0 {
		log.Error("No users created. Ensure the API is reachable. Exiting.")
		return
	}

	for _, u := range users {
		go simulateUser(ctx, u, settings)
	}

	log.Info("Location simulation started")
	<-ctx.Done()
	log.Info("Location simulation stopped")
}
