package testpdf

// SingleText is a one-page document with an empty text field "Name".
func SingleText() []byte {
	return Form{
		Pages: 1,
		Fields: []Field{
			{Name: "Name", FT: "Tx", Widgets: []Widget{{Page: 1, Rect: [4]float64{100, 700, 300, 720}}}},
		},
	}.Bytes()
}

// RepeatedCheckbox is a three-page document whose checkbox "Agree" has one
// widget on page 1 and one on page 3.
func RepeatedCheckbox() []byte {
	return Form{
		Pages: 3,
		Fields: []Field{
			{
				Name: "Agree",
				FT:   "Btn",
				Widgets: []Widget{
					{Page: 1, Rect: [4]float64{50, 50, 62, 62}},
					{Page: 3, Rect: [4]float64{50, 50, 62, 62}},
				},
			},
		},
	}.Bytes()
}

// Mixed is a two-page document with one field of every kind.
func Mixed() []byte {
	return Form{
		Pages: 2,
		Fields: []Field{
			{Name: "Name", FT: "Tx", Value: "(Bob)", Flags: Flags(2), DA: "/Helv 12 Tf 0 g",
				Widgets: []Widget{{Page: 1, Rect: [4]float64{100, 700, 300, 720}}}},
			{Name: "Subscribe", FT: "Btn", Value: "/Yes",
				Widgets: []Widget{{Page: 1, Rect: [4]float64{100, 650, 112, 662}}}},
			{Name: "Size", FT: "Btn", Flags: Flags(1 << 15), Value: "/M",
				Widgets: []Widget{
					{Page: 1, Rect: [4]float64{100, 600, 112, 612}, OnState: "S"},
					{Page: 1, Rect: [4]float64{120, 600, 132, 612}, OnState: "M"},
					{Page: 1, Rect: [4]float64{140, 600, 152, 612}, OnState: "L"},
				}},
			{Name: "Country", FT: "Ch", Flags: Flags(1 << 17), Value: "(Canada)",
				Options: []string{"USA", "Canada", "Mexico"},
				Widgets: []Widget{{Page: 2, Rect: [4]float64{100, 500, 300, 520}}}},
			{Name: "Signature", FT: "Sig",
				Widgets: []Widget{{Page: 2, Rect: [4]float64{100, 100, 300, 150}}}},
			{Name: "Submit", FT: "Btn", Flags: Flags(1 << 16),
				Widgets: []Widget{{Page: 2, Rect: [4]float64{400, 100, 500, 130}, NoAppearance: true}}},
		},
	}.Bytes()
}
