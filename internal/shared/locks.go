package shared

import "fmt"

// CustomerCreditLockKey builds redis keys for credit liquidation critical sections.
func CustomerCreditLockKey(customerID string) string {
	return fmt.Sprintf("credit:customer:%s:lock", customerID)
}

// CustomerCreditCacheKey builds the redis key holding a cached credit balance.
func CustomerCreditCacheKey(customerID string) string {
	return fmt.Sprintf("credit:customer:%s:balance", customerID)
}
