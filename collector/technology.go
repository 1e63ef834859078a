package collector

import "github.com/use-agent/scrapecheck/models"

// Technology categories.
const (
	TechCMS       = "cms"
	TechEcommerce = "ecommerce"
	TechFramework = "framework"
	TechLibrary   = "js-library"
	TechBuilder   = "website-builder"
	TechAPI       = "api"
)

var technologySignatures = []Signature{
	{Name: "WordPress", Category: TechCMS, indicators: []indicator{
		meta("generator", "wordpress", 60),
		markup("/wp-content/", 50),
		markup("/wp-includes/", 40),
		header("link", "api.w.org", 40),
	}},
	{Name: "Drupal", Category: TechCMS, indicators: []indicator{
		meta("generator", "drupal", 60),
		header("x-generator", "drupal", 60),
		header("x-drupal-cache", "", 50),
		markup("drupal-settings-json", 50),
	}},
	{Name: "Shopify", Category: TechEcommerce, indicators: []indicator{
		markup("cdn.shopify.com", 60),
		header("x-shopid", "", 60),
		cookie("_shopify", 40),
		markup("shopify.theme", 40),
	}},
	{Name: "Wix", Category: TechBuilder, indicators: []indicator{
		meta("generator", "wix.com", 70),
		header("x-wix-request-id", "", 60),
	}},
	{Name: "Squarespace", Category: TechBuilder, indicators: []indicator{
		markup("static1.squarespace.com", 60),
		meta("generator", "squarespace", 60),
	}},
	{Name: "Next.js", Category: TechFramework, indicators: []indicator{
		selector("script#__NEXT_DATA__", 80),
		script("/_next/static/", 50),
		header("x-powered-by", "next.js", 40),
	}},
	{Name: "Nuxt.js", Category: TechFramework, indicators: []indicator{
		selector("#__nuxt", 50),
		script("/_nuxt/", 50),
		markup("window.__nuxt__", 60),
	}},
	{Name: "Gatsby", Category: TechFramework, indicators: []indicator{
		selector("#___gatsby", 80),
		meta("generator", "gatsby", 60),
	}},
	{Name: "React", Category: TechLibrary, indicators: []indicator{
		selector("[data-reactroot]", 60),
		script("react-dom", 50),
		script("react.production.min.js", 50),
	}},
	{Name: "Vue.js", Category: TechLibrary, indicators: []indicator{
		selector("[data-v-app]", 60),
		markup("data-server-rendered", 30),
		script("vue.global", 50),
		script("vue.min.js", 50),
	}},
	{Name: "Angular", Category: TechFramework, indicators: []indicator{
		selector("[ng-version]", 80),
		selector("app-root", 30),
	}},
	{Name: "jQuery", Category: TechLibrary, indicators: []indicator{
		script("jquery", 60),
	}},
	{Name: "GraphQL", Category: TechAPI, indicators: []indicator{
		script("/graphql", 60),
	}},
}

// DetectTechnologies fingerprints CMS, framework and library usage.
func DetectTechnologies(p *Page) []models.Detection {
	return detect(technologySignatures, p)
}
