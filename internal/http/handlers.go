package http

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"github.com/ANIKETSHETTY47/smart-energy-home/internal/domain"
	"github.com/ANIKETSHETTY47/smart-energy-home/internal/metrics"
	"github.com/ANIKETSHETTY47/smart-energy-home/internal/service"
)

// NewApp builds the fiber app with middleware and every route registered.
func NewApp(svcs *service.Services) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: true,
	})
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(requestLogger)
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	Register(app, svcs)
	return app
}

type handlers struct {
	svcs *service.Services
}

func Register(app *fiber.App, svcs *service.Services) {
	h := &handlers{svcs: svcs}
	auth := requireUser(svcs.Sessions)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "SmartEnergy API"})
	})

	a := app.Group("/auth")
	a.Post("/register", h.register)
	a.Post("/login", h.login)
	a.Post("/logout", auth, h.logout)
	a.Get("/me", auth, h.me)
	a.Put("/me", auth, h.updateMe)

	ap := app.Group("/appliances", auth)
	ap.Get("", h.listAppliances)
	ap.Post("", h.createAppliance)
	ap.Get("/:id", h.getAppliance)
	ap.Put("/:id", h.updateAppliance)
	ap.Delete("/:id", h.deleteAppliance)
	ap.Get("/:id/maintenance", h.maintenance)

	ctl := app.Group("/control", auth)
	ctl.Post("/toggle/:id", h.toggle)
	ctl.Post("/set/:id", h.setState)

	e := app.Group("/energy", auth)
	e.Get("", h.queryReadings)
	e.Get("/summary", h.summary)
	e.Get("/realtime", h.realtime)
	e.Get("/analytics", h.analytics)
	e.Post("/ingest", h.ingest)

	app.Post("/forecast", auth, h.forecast)
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}
	return nil
}

func idParam(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: id must be an integer", domain.ErrInvalidArgument)
	}
	return id, nil
}

func message(c *fiber.Ctx, msg string) error {
	return c.JSON(fiber.Map{"message": msg})
}

// --- auth ---

type registerBody struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *handlers) register(c *fiber.Ctx) error {
	var body registerBody
	if err := parseBody(c, &body); err != nil {
		return err
	}
	u, err := h.svcs.Credentials.Register(c.UserContext(), body.Name, body.Email, body.Password)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(u)
}

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *handlers) login(c *fiber.Ctx) error {
	var body loginBody
	if err := parseBody(c, &body); err != nil {
		return err
	}
	token, u, err := h.svcs.Sessions.Login(c.UserContext(), body.Email, body.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"token": token, "user": u})
}

func (h *handlers) logout(c *fiber.Ctx) error {
	if err := h.svcs.Sessions.Logout(c.UserContext(), currentUser(c)); err != nil {
		return err
	}
	return message(c, "Logged out")
}

func (h *handlers) me(c *fiber.Ctx) error {
	return c.JSON(currentUser(c))
}

type updateMeBody struct {
	Name     *string `json:"name"`
	Password *string `json:"password"`
}

func (h *handlers) updateMe(c *fiber.Ctx) error {
	var body updateMeBody
	if err := parseBody(c, &body); err != nil {
		return err
	}
	if err := h.svcs.Sessions.UpdateProfile(c.UserContext(), currentUser(c), body.Name, body.Password); err != nil {
		return err
	}
	return message(c, "Profile updated")
}

// --- appliances ---

func (h *handlers) listAppliances(c *fiber.Ctx) error {
	items, err := h.svcs.Appliances.List(c.UserContext(), currentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(items)
}

func (h *handlers) createAppliance(c *fiber.Ctx) error {
	var body service.NewAppliance
	if err := parseBody(c, &body); err != nil {
		return err
	}
	a, err := h.svcs.Appliances.Create(c.UserContext(), currentUser(c), body)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(a)
}

func (h *handlers) getAppliance(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	a, err := h.svcs.Appliances.Get(c.UserContext(), currentUser(c), id)
	if err != nil {
		return err
	}
	return c.JSON(a)
}

func (h *handlers) updateAppliance(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var upd domain.ApplianceUpdate
	if err := parseBody(c, &upd); err != nil {
		return err
	}
	if upd.Empty() {
		return message(c, "No changes")
	}
	if err := h.svcs.Appliances.Update(c.UserContext(), currentUser(c), id, upd); err != nil {
		return err
	}
	return message(c, "Updated")
}

func (h *handlers) deleteAppliance(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	if err := h.svcs.Appliances.Delete(c.UserContext(), currentUser(c), id); err != nil {
		return err
	}
	return message(c, "Deleted")
}

func (h *handlers) maintenance(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	p, err := h.svcs.Maintenance.Predict(c.UserContext(), currentUser(c), id)
	if err != nil {
		return err
	}
	return c.JSON(p)
}

// --- control ---

func stateResponse(c *fiber.Ctx, a *domain.Appliance) error {
	return c.JSON(fiber.Map{"appliance_id": a.ID, "is_on": a.IsOn})
}

func (h *handlers) toggle(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	a, err := h.svcs.Appliances.Toggle(c.UserContext(), currentUser(c), id)
	if err != nil {
		return err
	}
	return stateResponse(c, a)
}

func (h *handlers) setState(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	on, err := strconv.ParseBool(c.Query("is_on"))
	if err != nil {
		return fmt.Errorf("%w: is_on must be a boolean", domain.ErrInvalidArgument)
	}
	a, err := h.svcs.Appliances.SetState(c.UserContext(), currentUser(c), id, on)
	if err != nil {
		return err
	}
	return stateResponse(c, a)
}

// --- energy ---

func (h *handlers) queryReadings(c *fiber.Ctx) error {
	var applianceID *int64
	if raw := c.Query("appliance_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: appliance_id must be an integer", domain.ErrInvalidArgument)
		}
		applianceID = &id
	}
	rows, err := h.svcs.Readings.Query(c.UserContext(), currentUser(c), c.Query("start"), c.Query("end"), applianceID)
	if err != nil {
		return err
	}
	return c.JSON(rows)
}

func (h *handlers) summary(c *fiber.Ctx) error {
	period, err := domain.ParsePeriod(c.Query("period", string(domain.PeriodDay)))
	if err != nil {
		return err
	}
	rows, err := h.svcs.Readings.Summary(c.UserContext(), currentUser(c), period)
	if err != nil {
		return err
	}
	return c.JSON(rows)
}

func (h *handlers) realtime(c *fiber.Ctx) error {
	rows, err := h.svcs.Readings.Realtime(c.UserContext(), currentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(rows)
}

func (h *handlers) analytics(c *fiber.Ctx) error {
	out, err := h.svcs.Analytics.Daily(c.UserContext(), currentUser(c), c.Query("date"))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

func (h *handlers) ingest(c *fiber.Ctx) error {
	var raws []domain.RawReading
	if err := parseBody(c, &raws); err != nil {
		return err
	}
	n, err := h.svcs.Readings.Ingest(c.UserContext(), currentUser(c), raws)
	if err != nil {
		return err
	}
	metrics.ObserveIngest("http", n)
	return c.JSON(fiber.Map{"inserted": n})
}

// --- forecast ---

type forecastBody struct {
	HorizonHours *int `json:"horizon_hours"`
}

func (h *handlers) forecast(c *fiber.Ctx) error {
	var body forecastBody
	if len(c.Body()) > 0 {
		if err := parseBody(c, &body); err != nil {
			return err
		}
	}
	horizon := service.DefaultHorizonHours
	if body.HorizonHours != nil {
		horizon = *body.HorizonHours
	}
	points, err := h.svcs.Forecaster.Forecast(c.UserContext(), currentUser(c), horizon)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"points": points})
}
