package ingestion

import (
	"strings"

	"arena/internal/domain/account"
	"arena/internal/domain/credential"
	"arena/internal/domain/holding"
	"arena/internal/infrastructure/plaid"
	"arena/internal/shared/date"
)

// accountRows maps aggregator accounts onto rows owned by the credential's user.
func accountRows(cred *credential.Credential, institution string, accounts []plaid.Account) []account.UpsertParams {
	rows := make([]account.UpsertParams, 0, len(accounts))
	for _, a := range accounts {
		if a.AccountID == "" {
			continue
		}
		inst := institution
		rows = append(rows, account.UpsertParams{
			CredentialID:    cred.ID,
			UserID:          cred.UserID,
			AccountID:       a.AccountID,
			Name:            a.DisplayName(),
			InstitutionName: &inst,
			Mask:            nonEmpty(a.Mask),
		})
	}
	return rows
}

// snapshotRows turns one holdings response into snapshot rows dated asOf.
// Holdings whose security is unknown keep their row with empty enrichment.
func snapshotRows(userID string, snap *plaid.HoldingsSnapshot, asOf date.Date) []holding.Snapshot {
	securities := snap.SecurityIndex()
	rows := make([]holding.Snapshot, 0, len(snap.Holdings))

	for _, h := range snap.Holdings {
		row := holding.Snapshot{
			UserID:     userID,
			AccountID:  holding.UnknownAccount,
			SecurityID: nonEmpty(h.SecurityID),
			Quantity:   h.Quantity.NullDecimal,
			Value:      h.InstitutionValue.NullDecimal,
			AsOfDate:   asOf,
		}
		if id := nonEmpty(h.AccountID); id != nil {
			row.AccountID = *id
		}

		var sec plaid.Security
		if row.SecurityID != nil {
			sec = securities[*row.SecurityID]
		}
		row.Name = nonEmpty(sec.Name)
		row.Ticker = nonEmpty(sec.TickerSymbol)
		row.IdentifierCode = nonEmpty(sec.CUSIP)
		row.Type = nonEmpty(sec.Type)

		row.CurrencyCode = nonEmpty(h.ISOCurrencyCode)
		if row.CurrencyCode == nil {
			row.CurrencyCode = nonEmpty(sec.ISOCurrencyCode)
		}

		rows = append(rows, row)
	}
	return rows
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := *s
	return &v
}
