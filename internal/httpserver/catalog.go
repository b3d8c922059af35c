package httpserver

import (
	"net/http"
	"strings"

	"esim-storefront/internal/domain"
	catalogsvc "esim-storefront/internal/service/catalog"
	"github.com/gin-gonic/gin"
)

func (a *api) listCountries(c *gin.Context) {
	filter := catalogsvc.CountryFilter{
		Region:      c.Query("region"),
		PopularOnly: c.Query("popular") == "true",
	}
	countries, err := a.deps.CatalogSvc.ListCountries(c.Request.Context(), filter)
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"countries": orEmpty(countries)})
}

func (a *api) getCountry(c *gin.Context) {
	country, err := a.deps.CatalogSvc.GetCountryByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusOK, country)
}

func (a *api) listCountryPackages(c *gin.Context) {
	pkgs, err := a.deps.CatalogSvc.ListPackagesByLocation(c.Request.Context(), c.Param("code"))
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"packages": orEmpty(pkgs)})
}

// listPackages serves the batch lookup; unknown codes are dropped.
func (a *api) listPackages(c *gin.Context) {
	var codes []string
	for _, raw := range strings.Split(c.Query("codes"), ",") {
		if code := strings.TrimSpace(raw); code != "" {
			codes = append(codes, code)
		}
	}
	if len(codes) == 0 {
		abortError(c, http.StatusBadRequest, "codes required")
		return
	}
	pkgs, err := a.deps.CatalogSvc.GetPackagesByCodes(c.Request.Context(), codes)
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"packages": orEmpty(pkgs)})
}

func (a *api) getPackage(c *gin.Context) {
	p, err := a.deps.CatalogSvc.GetPackageByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (a *api) search(c *gin.Context) {
	pkgs, err := a.deps.CatalogSvc.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"packages": orEmpty(pkgs)})
}

func (a *api) listBundles(c *gin.Context) {
	bundles, err := a.deps.CatalogSvc.ListBundles(c.Request.Context())
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bundles": orEmpty(bundles)})
}

func (a *api) getBundle(c *gin.Context) {
	ctx := c.Request.Context()
	ref := c.Param("ref")
	bundle, err := a.deps.CatalogSvc.GetBundle(ctx, ref)
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	pkgs, err := a.deps.CatalogSvc.GetBundlePackages(ctx, ref)
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bundle": bundle, "packages": orEmpty(pkgs)})
}

func (a *api) upsertPackage(c *gin.Context) {
	var p domain.Package
	if !bindJSON(c, &p) {
		return
	}
	out, err := a.deps.CatalogSvc.UpsertPackage(c.Request.Context(), p)
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

type packageBatchRequest struct {
	Packages []domain.Package `json:"packages" binding:"required"`
}

func (a *api) upsertPackages(c *gin.Context) {
	var req packageBatchRequest
	if !bindJSON(c, &req) {
		return
	}
	n, err := a.deps.CatalogSvc.UpsertPackages(c.Request.Context(), req.Packages)
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"upserted": n})
}

func (a *api) upsertCountry(c *gin.Context) {
	var country domain.Country
	if !bindJSON(c, &country) {
		return
	}
	out, err := a.deps.CatalogSvc.UpsertCountry(c.Request.Context(), country)
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

type countryBatchRequest struct {
	Countries []domain.Country `json:"countries" binding:"required"`
}

func (a *api) upsertCountries(c *gin.Context) {
	var req countryBatchRequest
	if !bindJSON(c, &req) {
		return
	}
	n, err := a.deps.CatalogSvc.UpsertCountries(c.Request.Context(), req.Countries)
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"upserted": n})
}

func (a *api) refreshCatalog(c *gin.Context) {
	n, err := a.deps.CatalogSvc.RefreshCountryStats(c.Request.Context())
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"refreshed": n})
}

// orEmpty keeps JSON arrays from rendering as null.
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
