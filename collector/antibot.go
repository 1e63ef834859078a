package collector

import "github.com/use-agent/scrapecheck/models"

// Weights are tuned so that CDN-only signals (a Cloudflare server header,
// an Akamai edge header) stay below the high-confidence threshold of 80,
// while active challenge or sensor signals cross it.

var antiBotSignatures = []Signature{
	{Name: "Cloudflare", Category: models.CategoryAntiBot, indicators: []indicator{
		header("server", "cloudflare", 30),
		header("cf-ray", "", 20),
		header("cf-mitigated", "", 60),
		cookie("__cf_bm", 30),
		cookie("cf_clearance", 50),
		markup("/cdn-cgi/challenge-platform", 60),
		markup("<title>just a moment...</title>", 40),
	}},
	{Name: "Akamai Bot Manager", Category: models.CategoryAntiBot, indicators: []indicator{
		cookie("_abck", 60),
		cookie("bm_sz", 40),
		cookie("ak_bmsc", 30),
		header("server", "akamaighost", 20),
		header("akamai-grn", "", 20),
	}},
	{Name: "DataDome", Category: models.CategoryAntiBot, indicators: []indicator{
		cookie("datadome", 70),
		header("x-datadome", "", 60),
		header("x-dd-b", "", 30),
		script("datadome.co", 50),
		script("captcha-delivery.com", 50),
	}},
	{Name: "PerimeterX", Category: models.CategoryAntiBot, indicators: []indicator{
		cookie("_px", 60),
		script("perimeterx.net", 50),
		script("px-cdn.net", 40),
		markup("_pxappid", 50),
	}},
	{Name: "Kasada", Category: models.CategoryAntiBot, indicators: []indicator{
		header("x-kpsdk-ct", "", 70),
		header("x-kpsdk-cd", "", 40),
		markup("kpsdk", 50),
	}},
	{Name: "Shape Security", Category: models.CategoryAntiBot, indicators: []indicator{
		header("x-px-shape", "", 50),
		markup("istlwashere", 40),
	}},
}

var captchaSignatures = []Signature{
	{Name: "reCAPTCHA", Category: models.CategoryCaptcha, indicators: []indicator{
		selector(".g-recaptcha", 100),
		script("google.com/recaptcha", 100),
		script("recaptcha.net/recaptcha", 100),
	}},
	{Name: "hCaptcha", Category: models.CategoryCaptcha, indicators: []indicator{
		selector(".h-captcha", 100),
		script("hcaptcha.com", 100),
	}},
	{Name: "Cloudflare Turnstile", Category: models.CategoryCaptcha, indicators: []indicator{
		selector(".cf-turnstile", 100),
		script("challenges.cloudflare.com/turnstile", 100),
	}},
	{Name: "FunCaptcha", Category: models.CategoryCaptcha, indicators: []indicator{
		selector("#FunCaptcha, [data-pkey]", 80),
		script("funcaptcha.com", 100),
		script("arkoselabs.com", 100),
	}},
	{Name: "GeeTest", Category: models.CategoryCaptcha, indicators: []indicator{
		script("geetest.com", 100),
		selector(".geetest_holder", 80),
	}},
}

var wafSignatures = []Signature{
	{Name: "Imperva Incapsula", Category: models.CategoryWAF, indicators: []indicator{
		cookie("incap_ses", 50),
		cookie("visid_incap", 50),
		header("x-iinfo", "", 40),
		header("x-cdn", "incapsula", 40),
	}},
	{Name: "Sucuri", Category: models.CategoryWAF, indicators: []indicator{
		header("server", "sucuri", 60),
		header("x-sucuri-id", "", 60),
	}},
	{Name: "AWS WAF", Category: models.CategoryWAF, indicators: []indicator{
		cookie("aws-waf-token", 70),
		script("token.awswaf.com", 50),
		header("x-amzn-waf-action", "", 60),
	}},
	{Name: "F5 BIG-IP ASM", Category: models.CategoryWAF, indicators: []indicator{
		cookie("ts01", 40),
		header("x-wa-info", "", 50),
	}},
}

// DetectAntiBot returns bot-management, CAPTCHA and WAF detections in that
// order.
func DetectAntiBot(p *Page) []models.Detection {
	out := detect(antiBotSignatures, p)
	out = append(out, detect(captchaSignatures, p)...)
	out = append(out, detect(wafSignatures, p)...)
	return out
}
