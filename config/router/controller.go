package router

import (
	"net/http"
	"path"
	"strings"

	"github.com/akeren/crpt-gateway/pkg/ratelimit"
)

func NewRESTController(name, mountPoint string, prepare func(*RouterService, *RESTController)) *RESTController {
	return &RESTController{
		name:       name,
		mountPoint: cleanRoute(mountPoint),
		prepare:    prepare,
	}
}

// NewVersionedRESTController prefixes the version to the mount point, e.g. "v1" + "/documents".
func NewVersionedRESTController(name, version, mountPoint string, prepare func(*RouterService, *RESTController)) *RESTController {
	return &RESTController{
		name:       name,
		mountPoint: cleanRoute(version + "/" + mountPoint),
		version:    version,
		prepare:    prepare,
	}
}

// RateLimitWith applies limiter to every handler of the controller without its own override.
func (controller *RESTController) RateLimitWith(routerService *RouterService, limiter ratelimit.RateLimiter) *RESTController {
	routerService.bindOverrideRateLimiter(controller.mountPoint, limiter)
	return controller
}

// cleanRoute returns an absolute route without a trailing slash. path.Clean keeps ":id" and
// "*rest" segments intact.
func cleanRoute(route string) string {
	return path.Clean("/" + strings.TrimSpace(route))
}

func (controller *RESTController) route(relative string) string {
	if strings.TrimSpace(relative) == "" {
		return controller.mountPoint
	}
	return cleanRoute(controller.mountPoint + "/" + relative)
}

func routeKey(method, route string) string {
	return method + " " + route
}

func (routerService *RouterService) AddHandler(
	method string,
	controller *RESTController,
	limiter ratelimit.RateLimiter,
	relativePath string,
	handler HandlerFunction,
	middlewares ...MiddlewareFunc,
) {
	route := controller.route(relativePath)
	key := routeKey(method, route)

	if owner, found := routerService.handlerToControllerMap[key]; found {
		panic("route " + key + " is already registered by controller " + owner.name)
	}
	routerService.handlerToControllerMap[key] = controller
	routerService.bindOverrideRateLimiter(key, limiter)

	controller.handlerCount++
	routerService.engine.Handle(method, route, append(middlewares, renderResult(handler))...)
	routerService.logger.Debug("Handler registered", "method", method, "path", route, "controller", controller.name)
}

func (routerService *RouterService) AddGetHandler(controller *RESTController, limiter ratelimit.RateLimiter, relativePath string, handler HandlerFunction, middlewares ...MiddlewareFunc) {
	routerService.AddHandler(http.MethodGet, controller, limiter, relativePath, handler, middlewares...)
}

func (routerService *RouterService) AddPostHandler(controller *RESTController, limiter ratelimit.RateLimiter, relativePath string, handler HandlerFunction, middlewares ...MiddlewareFunc) {
	routerService.AddHandler(http.MethodPost, controller, limiter, relativePath, handler, middlewares...)
}

func renderResult(handler HandlerFunction) MiddlewareFunc {
	return func(c *RequestContext) {
		result := handler(c)
		if result == nil {
			GetLogger(c).Error("Handler returned no result", "route", c.FullPath())
			result = ErrorResult(http.StatusInternalServerError, "The handler returned no result", nil)
		}
		c.JSON(result.StatusCode, result.ToJSON())
	}
}
