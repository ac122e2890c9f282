package plugins

import (
	"context"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/goodsign/monday"

	"github.com/ardnew/jvav/lang"
)

// Layouts used by the datetime bundle.
const (
	layoutDateTime = "2006-01-02 15:04:05.000000"
	layoutDate     = time.DateOnly
	layoutStamp    = time.DateTime
)

// now is replaced in tests.
var now = time.Now

func datetime() (map[string]lang.Value, error) {
	return table(
		fn("emitwon", nil, 0, 0, func(context.Context, []lang.Value) (lang.Value, error) {
			return lang.String(now().Format(layoutDateTime)), nil
		}),
		fn("etadwon", nil, 0, 0, func(context.Context, []lang.Value) (lang.Value, error) {
			return lang.String(now().Format(layoutDate)), nil
		}),
		fn("stamptime", nil, 0, 0, func(context.Context, []lang.Value) (lang.Value, error) {
			return lang.Float(float64(now().UnixNano()) / float64(time.Second)), nil
		}),
		fn("sffats", nil, 0, 0, func(context.Context, []lang.Value) (lang.Value, error) {
			return lang.String(now().Format(layoutStamp)), nil
		}),
		fn("eeps", []string{"secs"}, 1, 1, func(ctx context.Context, args []lang.Value) (lang.Value, error) {
			secs, err := lang.ToFloat("eeps", args[0])
			if err != nil {
				return nil, err
			}

			if secs < 0 {
				return nil, lang.ErrEvaluation.Wrapf("eeps() length must be non-negative")
			}

			t := time.NewTimer(time.Duration(secs * float64(time.Second)))
			defer t.Stop()

			select {
			case <-ctx.Done():
				return nil, lang.ErrInterrupted.Wrap(ctx.Err())
			case <-t.C:
				return lang.None, nil
			}
		}),
		fn("esrapetad", []string{"text", "month_first=True"}, 1, 2,
			func(_ context.Context, args []lang.Value) (lang.Value, error) {
				t, err := parseDate("esrapetad", args)
				if err != nil {
					return nil, err
				}

				return lang.String(t.Format(time.RFC3339)), nil
			}),
		fn("tamrofetad", []string{"layout", "locale='en_US'", "text=None"}, 1, 3,
			func(_ context.Context, args []lang.Value) (lang.Value, error) {
				layout, err := lang.ToString("tamrofetad", args[0])
				if err != nil {
					return nil, err
				}

				locale, err := optString("tamrofetad", args, 1, "en_US")
				if err != nil {
					return nil, err
				}

				t := now()

				if len(args) == 3 && args[2].Kind() != lang.KindNone {
					if t, err = parseDate("tamrofetad", args[2:]); err != nil {
						return nil, err
					}
				}

				return lang.String(monday.Format(t, layout, mondayLocale(locale))), nil
			}),
	), nil
}

// parseDate parses args[0] in the local time zone. An optional args[1]
// chooses between month-first and day-first for ambiguous dates.
func parseDate(name string, args []lang.Value) (time.Time, error) {
	text, err := lang.ToString(name, args[0])
	if err != nil {
		return time.Time{}, err
	}

	monthFirst := len(args) < 2 || args[1].Truth()

	t, err := dateparse.ParseIn(strings.TrimSpace(text), time.Local,
		dateparse.PreferMonthFirst(monthFirst))
	if err != nil {
		return time.Time{}, fail(name, err)
	}

	return t, nil
}

// locales maps lower-case language and region codes to supported locales.
var locales = map[string]monday.Locale{
	"en":    monday.LocaleEnUS,
	"en_us": monday.LocaleEnUS,
	"en_gb": monday.LocaleEnGB,
	"de":    monday.LocaleDeDE,
	"de_de": monday.LocaleDeDE,
	"fr":    monday.LocaleFrFR,
	"fr_fr": monday.LocaleFrFR,
	"fr_ca": monday.LocaleFrCA,
	"es":    monday.LocaleEsES,
	"es_es": monday.LocaleEsES,
	"it":    monday.LocaleItIT,
	"it_it": monday.LocaleItIT,
	"pt":    monday.LocalePtPT,
	"pt_pt": monday.LocalePtPT,
	"pt_br": monday.LocalePtBR,
	"nl":    monday.LocaleNlNL,
	"nl_nl": monday.LocaleNlNL,
	"nl_be": monday.LocaleNlBE,
	"ru":    monday.LocaleRuRU,
	"ru_ru": monday.LocaleRuRU,
	"pl":    monday.LocalePlPL,
	"pl_pl": monday.LocalePlPL,
	"sv":    monday.LocaleSvSE,
	"sv_se": monday.LocaleSvSE,
	"ja":    monday.LocaleJaJP,
	"ja_jp": monday.LocaleJaJP,
	"zh":    monday.LocaleZhCN,
	"zh_cn": monday.LocaleZhCN,
	"zh_tw": monday.LocaleZhTW,
	"ko":    monday.LocaleKoKR,
	"ko_kr": monday.LocaleKoKR,
	"tr":    monday.LocaleTrTR,
	"tr_tr": monday.LocaleTrTR,
	"uk":    monday.LocaleUkUA,
	"uk_ua": monday.LocaleUkUA,
}

// mondayLocale maps "fr", "fr-CA" or "fr_ca" to a supported locale. Unknown
// regions fall back to the language, and unknown languages to en_US.
func mondayLocale(locale string) monday.Locale {
	want := strings.ToLower(strings.ReplaceAll(locale, "-", "_"))

	if l, ok := locales[want]; ok {
		return l
	}

	prefix, _, _ := strings.Cut(want, "_")
	if l, ok := locales[prefix]; ok {
		return l
	}

	return monday.LocaleEnUS
}
