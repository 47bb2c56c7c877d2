package identity

import (
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// RestUser is the outward projection of a user: the public identity and the
// profile the frontend renders. It never carries the internal id, and never
// the address; the address has its own explicit endpoint.
type RestUser struct {
	PublicID    uuid.UUID `json:"publicId"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	Email       string    `json:"email"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	Authorities []string  `json:"authorities"`
}

// RestUserFrom projects a domain user.
func RestUserFrom(user *User) (RestUser, error) {
	if user == nil {
		return RestUser{}, goerrors.New("cannot project a nil user", goerrors.CategoryInternal)
	}

	return RestUser{
		PublicID:    user.PublicID,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Email:       user.Email,
		ImageURL:    user.ImageURL,
		Authorities: AuthorityNames(user.Authorities),
	}, nil
}

// DefaultTokenLocalsKey is where the upstream JWT middleware stores the
// verified token on the request.
const DefaultTokenLocalsKey = "user"

// Controller exposes the identity operations over HTTP. Token verification
// happens upstream; the controller only consumes the verified token.
type Controller struct {
	sync     *Synchronizer
	logger   Logger
	tokenKey string
}

// ControllerOption configures the controller.
type ControllerOption func(*Controller)

// WithControllerLogger overrides the controller logger.
func WithControllerLogger(l Logger) ControllerOption {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTokenLocalsKey overrides the fiber locals key for the verified token.
func WithTokenLocalsKey(key string) ControllerOption {
	return func(c *Controller) {
		if key != "" {
			c.tokenKey = key
		}
	}
}

// NewController builds the HTTP controller around the synchronizer.
func NewController(sync *Synchronizer, opts ...ControllerOption) *Controller {
	controller := &Controller{
		sync:     sync,
		logger:   defLogger{},
		tokenKey: DefaultTokenLocalsKey,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(controller)
		}
	}
	return controller
}

// RegisterRoutes mounts the user endpoints.
func (ctrl *Controller) RegisterRoutes(app fiber.Router) {
	api := app.Group("/api/users")
	api.Get("/authenticated", ctrl.GetAuthenticatedUser)
	api.Post("/address", ctrl.UpdateAddress)
}

// GetAuthenticatedUser syncs the caller against the IdP and returns the
// projection of the record the sync settled on. The forceResync query flag
// requests an update even when the freshness claim is not newer.
func (ctrl *Controller) GetAuthenticatedUser(c *fiber.Ctx) error {
	token, ok := c.Locals(ctrl.tokenKey).(*jwt.Token)
	if !ok || token == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "missing verified token",
		})
	}

	forceResync := c.QueryBool("forceResync")

	result, err := ctrl.sync.SyncWithIdP(c.UserContext(), token, forceResync)
	if err != nil {
		return ctrl.renderError(c, err)
	}

	rest, err := RestUserFrom(result.User)
	if err != nil {
		return ctrl.renderError(c, err)
	}

	return c.JSON(rest)
}

// UpdateAddress applies the narrow address write for the caller.
func (ctrl *Controller) UpdateAddress(c *fiber.Ctx) error {
	var req UpdateAddressRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "malformed address payload",
		})
	}

	if err := ctrl.sync.UpdateAddress(c.UserContext(), req); err != nil {
		return ctrl.renderError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (ctrl *Controller) renderError(c *fiber.Ctx, err error) error {
	status := statusForError(err)
	if status >= fiber.StatusInternalServerError {
		ctrl.logger.Error("identity request %s failed: %v", c.Path(), err)
	}

	body := fiber.Map{"error": err.Error()}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.TextCode != "" {
		body["code"] = richErr.TextCode
	}

	return c.Status(status).JSON(body)
}

func statusForError(err error) int {
	if IsIdPUnavailable(err) {
		return fiber.StatusServiceUnavailable
	}

	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return fiber.StatusInternalServerError
	}

	switch richErr.Category {
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return fiber.StatusBadRequest
	case goerrors.CategoryAuth:
		return fiber.StatusUnauthorized
	case goerrors.CategoryNotFound:
		return fiber.StatusNotFound
	case goerrors.CategoryConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}
