package repository

import "github.com/timmy/gemstore/internal/domain"

// seedEntry is one code with its English and Russian display names.
type seedEntry struct {
	code string
	en   string
	ru   string
}

var seedFamilies = map[domain.AttributeFamily][]seedEntry{
	domain.FamilyType: {
		{"diamond", "Diamond", "Бриллиант"},
		{"ruby", "Ruby", "Рубин"},
		{"sapphire", "Sapphire", "Сапфир"},
		{"emerald", "Emerald", "Изумруд"},
		{"amethyst", "Amethyst", "Аметист"},
		{"topaz", "Topaz", "Топаз"},
		{"garnet", "Garnet", "Гранат"},
		{"peridot", "Peridot", "Перидот"},
		{"citrine", "Citrine", "Цитрин"},
		{"tanzanite", "Tanzanite", "Танзанит"},
		{"aquamarine", "Aquamarine", "Аквамарин"},
		{"morganite", "Morganite", "Морганит"},
		{"tourmaline", "Tourmaline", "Турмалин"},
		{"paraiba_tourmaline", "Paraiba Tourmaline", "Турмалин Параиба"},
		{"spinel", "Spinel", "Шпинель"},
		{"alexandrite", "Alexandrite", "Александрит"},
		{"agate", "Agate", "Агат"},
	},
	domain.FamilyColor: {
		{"red", "Red", "Красный"},
		{"pink", "Pink", "Розовый"},
		{"blue", "Blue", "Синий"},
		{"green", "Green", "Зелёный"},
		{"yellow", "Yellow", "Жёлтый"},
		{"purple", "Purple", "Фиолетовый"},
		{"orange", "Orange", "Оранжевый"},
		{"white", "White", "Белый"},
		{"black", "Black", "Чёрный"},
		{"colorless", "Colorless", "Бесцветный"},
		{"multicolor", "Multicolor", "Многоцветный"},
	},
	domain.FamilyCut: {
		{"round", "Round", "Круглая"},
		{"oval", "Oval", "Овальная"},
		{"cushion", "Cushion", "Кушон"},
		{"emerald", "Emerald Cut", "Изумрудная"},
		{"pear", "Pear", "Груша"},
		{"marquise", "Marquise", "Маркиз"},
		{"princess", "Princess", "Принцесса"},
		{"heart", "Heart", "Сердце"},
		{"cabochon", "Cabochon", "Кабошон"},
		{"baguette", "Baguette", "Багет"},
	},
	domain.FamilyClarity: {
		{"FL", "Flawless", "Безупречная"},
		{"IF", "Internally Flawless", "Внутренне безупречная"},
		{"VVS1", "VVS1", "VVS1"},
		{"VVS2", "VVS2", "VVS2"},
		{"VS1", "VS1", "VS1"},
		{"VS2", "VS2", "VS2"},
		{"SI1", "SI1", "SI1"},
		{"SI2", "SI2", "SI2"},
		{"I1", "I1", "I1"},
		{"eye_clean", "Eye Clean", "Чистый на глаз"},
	},
}

// seedVocabulary expands seedFamilies into translation rows in a stable order.
func seedVocabulary() []domain.Translation {
	var rows []domain.Translation
	for _, family := range domain.AttributeFamilies {
		for _, e := range seedFamilies[family] {
			rows = append(rows,
				domain.Translation{Family: family, Code: e.code, Locale: "en", Name: e.en},
				domain.Translation{Family: family, Code: e.code, Locale: "ru", Name: e.ru},
			)
		}
	}
	return rows
}
