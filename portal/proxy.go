package portal

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/sirupsen/logrus"
)

// newProxy forwards /api/ requests unchanged to target.
func newProxy(target string, log *logrus.Logger) (http.Handler, error) {
	u, err := url.Parse(target)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid proxy target %q: %v", target, err) //nolint:errorlint // err may be nil
	}

	rp := httputil.NewSingleHostReverseProxy(u)
	director := rp.Director
	rp.Director = func(r *http.Request) {
		director(r)
		r.Host = u.Host
	}
	rp.ErrorHandler = func(rw http.ResponseWriter, r *http.Request, err error) {
		log.WithError(err).WithField("uri", r.RequestURI).Error("Error proxying request")
		rw.WriteHeader(http.StatusBadGateway)
	}

	return rp, nil
}
