package bot

import (
	"reflect"
	"strings"
	"testing"

	"github.com/yonathanth/betbot-sub000/models"
)

func TestAttributeFields(t *testing.T) {
	cases := []struct {
		category string
		title    string
		want     []string
	}{
		{models.CategoryResidential, TitleCondominium, []string{FieldBedrooms, FieldBathrooms, FieldFloor, FieldSize}},
		{models.CategoryResidential, TitleApartment, []string{FieldBedrooms, FieldBathrooms, FieldFloor, FieldSize}},
		{models.CategoryResidential, TitleVilla, []string{FieldVillaType, FieldBedrooms, FieldBathrooms, FieldSize}},
		{models.CategoryResidential, TitleCompoundRoom, []string{FieldRoomsCount, FieldBathroomType}},
		{models.CategoryResidential, TitleStudio, []string{FieldBathroomType, FieldSize}},
		{models.CategoryResidential, TitleFullCompound, []string{FieldBedrooms, FieldBathrooms, FieldSize}},
		{models.CategoryCommercial, TitleOffice, []string{FieldFloor, FieldSize}},
		{models.CategoryCommercial, TitleShop, []string{FieldFloor, FieldSize}},
		{models.CategoryCommercial, TitleWarehouse, []string{FieldSize}},
		{models.CategoryCommercial, TitleHall, []string{FieldSize}},
	}
	for _, c := range cases {
		got := AttributeFields(c.category, c.title)
		if !reflect.DeepEqual(got, c.want) {
			t.Errorf("AttributeFields(%s, %s) = %v, want %v", c.category, c.title, got, c.want)
		}
	}
}

func TestRoomsCountOnlyForCompoundRoom(t *testing.T) {
	for _, title := range append(TitlesFor(models.CategoryResidential), TitlesFor(models.CategoryCommercial)...) {
		fields := AttributeFields(models.CategoryResidential, title)
		has := false
		for _, f := range fields {
			if f == FieldRoomsCount {
				has = true
			}
		}
		if has != (title == TitleCompoundRoom) {
			t.Errorf("title %q: rooms_count presence = %v", title, has)
		}
	}
}

func TestBathroomTypeOptions(t *testing.T) {
	binary := []string{BathPrivate, BathShared}
	threeWay := []string{BathFull, BathToiletOnly, BathShowerOnly}

	if got := BathroomTypeOptions(TitleStudio); !reflect.DeepEqual(got, binary) {
		t.Errorf("studio options = %v", got)
	}
	if got := BathroomTypeOptions(TitleCompoundRoom); !reflect.DeepEqual(got, binary) {
		t.Errorf("compound-room options = %v", got)
	}
	if got := BathroomTypeOptions(TitleVilla); !reflect.DeepEqual(got, threeWay) {
		t.Errorf("villa options = %v", got)
	}
}

func TestEditFieldsPresenceGating(t *testing.T) {
	l := &models.Listing{
		Category:  models.CategoryResidential,
		Title:     TitleVilla,
		VillaType: VillaGPlus1,
		Bedrooms:  3,
		// Bathrooms and Size left empty.
	}
	fields := EditFields(l)

	want := map[string]bool{
		FieldTitle: true, FieldLocation: true, FieldPrice: true,
		FieldContact: true, FieldDisplayName: true,
		FieldVillaType: true, FieldBedrooms: true,
	}
	got := map[string]bool{}
	for _, f := range fields {
		got[f] = true
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("EditFields = %v, want keys %v", fields, want)
	}
}

func TestFormatListingSummary(t *testing.T) {
	l := &models.Listing{
		Category:   models.CategoryResidential,
		Title:      TitleCompoundRoom,
		RoomsCount: 3,
		Location:   "ቦሌ",
		Price:      "8,000 ብር/ወር",
		Contact:    "+251911223344",
	}
	got := FormatListingSummary(l)

	for _, want := range []string{"3 ክፍል", "ቦሌ", "8,000 ብር/ወር", TitleCompoundRoom, "+251911223344"} {
		if !strings.Contains(got, want) {
			t.Errorf("summary missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "መኝታ") {
		t.Errorf("summary shows bedrooms for a compound room:\n%s", got)
	}
}

func TestTitlesFor(t *testing.T) {
	res := TitlesFor(models.CategoryResidential)
	if len(res) != 6 {
		t.Fatalf("residential titles = %v", res)
	}
	com := TitlesFor(models.CategoryCommercial)
	if len(com) != 4 {
		t.Fatalf("commercial titles = %v", com)
	}
}
