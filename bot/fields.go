package bot

import (
	"fmt"
	"strings"

	"github.com/yonathanth/betbot-sub000/models"
)

// Property titles offered per category. These are the exact Amharic labels
// shown on the keyboards and stored on the listing.
const (
	TitleCondominium  = "ኮንዶሚኒየም"
	TitleApartment    = "አፓርታማ"
	TitleVilla        = "ቪላ"
	TitleCompoundRoom = "ግቢ ውስጥ ያለ"
	TitleStudio       = "ስቱዲዮ"
	TitleFullCompound = "ሙሉ ግቢ"

	TitleOffice    = "ቢሮ"
	TitleShop      = "ሱቅ"
	TitleWarehouse = "መጋዘን"
	TitleHall      = "አዳራሽ"
)

// Category-specific attribute fields. Names double as listing columns.
const (
	FieldRoomsCount   = "rooms_count"
	FieldFloor        = "floor"
	FieldBedrooms     = "bedrooms"
	FieldBathrooms    = "bathrooms"
	FieldBathroomType = "bathroom_type"
	FieldVillaType    = "villa_type"
	FieldSize         = "size"
)

// Common edit fields always offered in the moderation edit menu.
const (
	FieldTitle       = "title"
	FieldLocation    = "location"
	FieldPrice       = "price"
	FieldContact     = "contact"
	FieldDisplayName = "display_name"
)

// Bathroom type values.
const (
	BathPrivate    = "private"
	BathShared     = "shared"
	BathFull       = "full"
	BathToiletOnly = "toilet_only"
	BathShowerOnly = "shower_only"
)

// Villa type values.
const (
	VillaSingle = "single"
	VillaGPlus1 = "g+1"
	VillaGPlus2 = "g+2"
)

func TitlesFor(category string) []string {
	if category == models.CategoryCommercial {
		return []string{TitleOffice, TitleShop, TitleWarehouse, TitleHall}
	}
	return []string{TitleCondominium, TitleApartment, TitleVilla, TitleCompoundRoom, TitleStudio, TitleFullCompound}
}

// AttributeFields is the single source of truth for which category-specific
// sub-steps a (category, title) pair gets, in prompt order. The submission
// flow inserts these as steps; the moderation edit menu offers the same set
// (presence-gated), so both sides always agree on a listing's shape.
func AttributeFields(category, title string) []string {
	if category == models.CategoryCommercial {
		switch title {
		case TitleOffice, TitleShop:
			return []string{FieldFloor, FieldSize}
		default: // warehouse, hall
			return []string{FieldSize}
		}
	}
	switch title {
	case TitleCondominium, TitleApartment:
		return []string{FieldBedrooms, FieldBathrooms, FieldFloor, FieldSize}
	case TitleVilla:
		return []string{FieldVillaType, FieldBedrooms, FieldBathrooms, FieldSize}
	case TitleCompoundRoom:
		// The only title that gets a rooms count.
		return []string{FieldRoomsCount, FieldBathroomType}
	case TitleStudio:
		return []string{FieldBathroomType, FieldSize}
	case TitleFullCompound:
		return []string{FieldBedrooms, FieldBathrooms, FieldSize}
	default:
		return []string{FieldSize}
	}
}

// BathroomTypeOptions depends on the listing's title: the studio and
// compound-room variants get a binary private/shared choice, everything
// else the three-way split.
func BathroomTypeOptions(title string) []string {
	if title == TitleStudio || title == TitleCompoundRoom {
		return []string{BathPrivate, BathShared}
	}
	return []string{BathFull, BathToiletOnly, BathShowerOnly}
}

func VillaTypeOptions() []string {
	return []string{VillaSingle, VillaGPlus1, VillaGPlus2}
}

// EditFields builds the moderation edit menu for a listing: the common
// fields plus every applicable attribute that is currently populated.
func EditFields(l *models.Listing) []string {
	fields := []string{FieldTitle, FieldLocation, FieldPrice, FieldContact, FieldDisplayName}
	for _, f := range AttributeFields(l.Category, l.Title) {
		if attributePresent(l, f) {
			fields = append(fields, f)
		}
	}
	return fields
}

func attributePresent(l *models.Listing, field string) bool {
	switch field {
	case FieldRoomsCount:
		return l.RoomsCount > 0
	case FieldFloor:
		return l.Floor > 0
	case FieldBedrooms:
		return l.Bedrooms > 0
	case FieldBathrooms:
		return l.Bathrooms > 0
	case FieldBathroomType:
		return l.BathroomType != ""
	case FieldVillaType:
		return l.VillaType != ""
	case FieldSize:
		return l.Size != ""
	}
	return false
}

// Amharic labels.

var fieldLabels = map[string]string{
	FieldTitle:        "የቤት አይነት",
	FieldLocation:     "አድራሻ",
	FieldPrice:        "ዋጋ",
	FieldContact:      "የመገናኛ መረጃ",
	FieldDisplayName:  "የአስተዋዋቂ ስም",
	FieldRoomsCount:   "የክፍል ብዛት",
	FieldFloor:        "ፎቅ",
	FieldBedrooms:     "መኝታ ክፍል",
	FieldBathrooms:    "መታጠቢያ ቤት",
	FieldBathroomType: "የመታጠቢያ አይነት",
	FieldVillaType:    "የቪላ አይነት",
	FieldSize:         "ስፋት",
}

func FieldLabel(field string) string {
	if label, ok := fieldLabels[field]; ok {
		return label
	}
	return field
}

var valueLabels = map[string]string{
	models.CategoryResidential: "የመኖሪያ ቤት",
	models.CategoryCommercial:  "የንግድ ቤት",
	models.RoleBroker:          "ደላላ",
	models.RoleOwner:           "ባለቤት",
	models.RoleTenant:          "ተከራይ",
	BathPrivate:                "የግል",
	BathShared:                 "የጋራ",
	BathFull:                   "ሙሉ",
	BathToiletOnly:             "ሽንት ቤት ብቻ",
	BathShowerOnly:             "ሻወር ብቻ",
	VillaSingle:                "ነጠላ",
	VillaGPlus1:                "ጂ+1",
	VillaGPlus2:                "ጂ+2",
}

func ValueLabel(value string) string {
	if label, ok := valueLabels[value]; ok {
		return label
	}
	return value
}

// FormatListingSummary renders the admin review / channel body text for a
// listing: category, title with its category-specific attributes, address,
// price, contact and submitter.
func FormatListingSummary(l *models.Listing) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🏠 %s — %s\n", ValueLabel(l.Category), l.Title)

	var specs []string
	if l.RoomsCount > 0 {
		specs = append(specs, fmt.Sprintf("%d ክፍል", l.RoomsCount))
	}
	if l.Bedrooms > 0 {
		specs = append(specs, fmt.Sprintf("%d መኝታ", l.Bedrooms))
	}
	if l.Bathrooms > 0 {
		specs = append(specs, fmt.Sprintf("%d መታጠቢያ", l.Bathrooms))
	}
	if l.BathroomType != "" {
		specs = append(specs, FieldLabel(FieldBathroomType)+": "+ValueLabel(l.BathroomType))
	}
	if l.VillaType != "" {
		specs = append(specs, FieldLabel(FieldVillaType)+": "+ValueLabel(l.VillaType))
	}
	if l.Floor > 0 {
		specs = append(specs, fmt.Sprintf("%d ፎቅ", l.Floor))
	}
	if l.Size != "" {
		specs = append(specs, FieldLabel(FieldSize)+": "+l.Size)
	}
	if len(specs) > 0 {
		b.WriteString(strings.Join(specs, " | "))
		b.WriteString("\n")
	}

	if l.Location != "" {
		fmt.Fprintf(&b, "📍 %s\n", l.Location)
	}
	if l.Price != "" {
		fmt.Fprintf(&b, "💰 %s\n", l.Price)
	}
	if l.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", l.Description)
	}
	if l.Contact != "" {
		fmt.Fprintf(&b, "\n☎️ %s\n", l.Contact)
	}
	if l.PlatformLink != "" {
		name := l.PlatformName
		if name == "" {
			name = "ሊንክ"
		}
		fmt.Fprintf(&b, "🔗 %s: %s\n", name, l.PlatformLink)
	}
	if l.Owner.ID != 0 {
		fmt.Fprintf(&b, "\n👤 %s (%s)", l.Owner.DisplayName, l.Owner.PhoneNumber)
	}
	return strings.TrimRight(b.String(), "\n")
}
