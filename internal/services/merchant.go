package services

import (
	"fmt"

	"github.com/bryantttp/bankingwebapp/internal/models"
)

// MerchantCategoryByNumber resolves a merchant category code number.
func MerchantCategoryByNumber(codeNumber int) (models.MerchantCategory, error) {
	for _, mc := range models.DefaultMerchantCategories {
		if mc.CodeNumber == codeNumber {
			return mc, nil
		}
	}
	return models.MerchantCategory{}, fmt.Errorf("%w: %d", ErrMerchantCategoryUnknown, codeNumber)
}

// MerchantCategoryByName resolves a merchant category by its label.
func MerchantCategoryByName(category string) (models.MerchantCategory, error) {
	for _, mc := range models.DefaultMerchantCategories {
		if mc.Category == category {
			return mc, nil
		}
	}
	return models.MerchantCategory{}, fmt.Errorf("%w: %s", ErrMerchantCategoryUnknown, category)
}
