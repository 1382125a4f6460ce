// Package i18n provides the small set of caller-visible strings in the two
// supported languages. All diagnostics stay server-side; these messages are
// intentionally short and non-technical.
package i18n

import "golang.org/x/text/language"

var supported = []language.Tag{
	language.Hebrew, // default
	language.English,
}

var matcher = language.NewMatcher(supported)

// Match resolves an Accept-Language header value to a supported tag.
// Unrecognized or empty input falls back to Hebrew.
func Match(acceptLanguage string) language.Tag {
	if acceptLanguage == "" {
		return language.Hebrew
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return language.Hebrew
	}
	_, idx, _ := matcher.Match(tags...)
	return supported[idx]
}

// Key identifies a localized message.
type Key string

const (
	KeyBlockedInjection  Key = "blocked_injection"
	KeyBlockedFile       Key = "blocked_file"
	KeyOutputReplaced    Key = "output_replaced"
	KeyIterationLimit    Key = "iteration_limit"
	KeyGenericError      Key = "generic_error"
	KeyLookingUp         Key = "looking_up" // formatted with the tool label
	KeyRecordNotFound    Key = "record_not_found"
	KeyMessageRequired   Key = "message_required"
	KeyAttachmentTooBig  Key = "attachment_too_big"
	KeyAttachmentType    Key = "attachment_type"
	KeyAttachmentUnsafe  Key = "attachment_unsafe"
)

var hebrew = map[Key]string{
	KeyBlockedInjection: "הבקשה נחסמה מסיבות אבטחה. נא לנסח את השאלה מחדש.",
	KeyBlockedFile:      "הקובץ שצורף נחסם ולא ניתן לעבד אותו.",
	KeyOutputReplaced:   "חלק מהתשובה הוסר משיקולי אבטחה.",
	KeyIterationLimit:   "לא הצלחתי להשלים את הבקשה במספר הצעדים המותר. נא לנסות שאלה ממוקדת יותר.",
	KeyGenericError:     "אירעה שגיאה זמנית. נא לנסות שוב בעוד רגע.",
	KeyLookingUp:        "מאתר מידע: %s...",
	KeyRecordNotFound:   "תיק השומה המבוקש לא נמצא.",
	KeyMessageRequired:  "נדרש טקסט הודעה.",
	KeyAttachmentTooBig: "הקובץ המצורף גדול מדי.",
	KeyAttachmentType:   "סוג הקובץ המצורף אינו נתמך.",
	KeyAttachmentUnsafe: "הקובץ המצורף נמצא לא בטוח.",
}

var english = map[Key]string{
	KeyBlockedInjection: "The request was blocked for security reasons. Please rephrase your question.",
	KeyBlockedFile:      "The attached file was blocked and cannot be processed.",
	KeyOutputReplaced:   "Part of the response was removed for security reasons.",
	KeyIterationLimit:   "I could not complete the request within the allowed number of steps. Please try a more focused question.",
	KeyGenericError:     "A temporary error occurred. Please try again in a moment.",
	KeyLookingUp:        "Looking up: %s...",
	KeyRecordNotFound:   "The requested appraisal record was not found.",
	KeyMessageRequired:  "A message text is required.",
	KeyAttachmentTooBig: "The attached file is too large.",
	KeyAttachmentType:   "The attached file type is not supported.",
	KeyAttachmentUnsafe: "The attached file was found unsafe.",
}

// T returns the message for key in the given language, falling back to
// Hebrew and then to the key itself.
func T(tag language.Tag, key Key) string {
	if tag == language.English {
		if msg, ok := english[key]; ok {
			return msg
		}
	}
	if msg, ok := hebrew[key]; ok {
		return msg
	}
	return string(key)
}

// ToolLabels maps registered tool names to user-facing progress labels.
// A tool missing from the map falls back to its raw name in the notice.
var ToolLabels = map[string]map[language.Tag]string{
	"get_property_details": {
		language.Hebrew:  "פרטי הנכס",
		language.English: "property details",
	},
	"get_land_registry": {
		language.Hebrew:  "נסח טאבו",
		language.English: "land registry extract",
	},
	"get_building_permits": {
		language.Hebrew:  "היתרי בנייה",
		language.English: "building permits",
	},
	"get_shared_building_order": {
		language.Hebrew:  "צו בית משותף",
		language.English: "shared building order",
	},
	"get_document_extractions": {
		language.Hebrew:  "נתוני מסמכים",
		language.English: "document extractions",
	},
	"get_comparable_sales": {
		language.Hebrew:  "עסקאות השוואה",
		language.English: "comparable sales",
	},
}

// ToolLabel returns the localized label for a tool name, or the raw name
// when no label exists.
func ToolLabel(tag language.Tag, name string) string {
	labels, ok := ToolLabels[name]
	if !ok {
		return name
	}
	if label, ok := labels[tag]; ok {
		return label
	}
	if label, ok := labels[language.Hebrew]; ok {
		return label
	}
	return name
}
