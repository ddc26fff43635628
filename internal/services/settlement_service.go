package services

import (
	"encoding/xml"
	"fmt"
	"log"
	"time"

	"github.com/bryantttp/bankingwebapp/internal/models"
	"github.com/google/uuid"
	"github.com/moov-io/iso20022/pkg/common"
	"github.com/moov-io/iso20022/pkg/pacs_v08"
)

// SettlementService turns external-transfer ledger entries into ISO 20022
// messages for the clearing network. It runs strictly after commit; a
// settlement failure never unwinds a posted transfer.
type SettlementService struct {
	bankBIC string
}

func NewSettlementService(bankBIC string) *SettlementService {
	return &SettlementService{bankBIC: bankBIC}
}

// SendExternalTransfer builds and submits a pacs.008 credit transfer for an
// external-transfer entry.
func (s *SettlementService) SendExternalTransfer(entry *models.Entry) error {
	if entry.Type != models.EntryExternalTransfer {
		return fmt.Errorf("entry %s is not an external transfer", entry.ID)
	}

	doc, err := s.CreatePacs008(entry)
	if err != nil {
		return err
	}
	return s.sendToSettlement(doc)
}

// CreatePacs008 creates a pacs.008 FIToFICustomerCreditTransfer message from
// an external-transfer entry.
func (s *SettlementService) CreatePacs008(entry *models.Entry) (*pacs_v08.FIToFICustomerCreditTransferV08, error) {
	msgID := uuid.New().String()
	settlementDate := entry.CreatedAt

	amount := entry.Amount.InexactFloat64()
	entryID := common.Max35Text(entry.ID)
	debtorBIC := common.BICFIDec2014Identifier(s.bankBIC)
	debtorName := common.Max140Text(entry.AccountNumber)
	creditorName := common.Max140Text(entry.RecipientAccountNumber)

	doc := &pacs_v08.FIToFICustomerCreditTransferV08{
		GrpHdr: pacs_v08.GroupHeader93{
			MsgId:   common.Max35Text(msgID),
			CreDtTm: common.ISODateTime(time.Now()),
			NbOfTxs: "1",
			TtlIntrBkSttlmAmt: &pacs_v08.ActiveCurrencyAndAmount{
				Ccy:   common.ActiveCurrencyCode(entry.CurrencyCode),
				Value: amount,
			},
			IntrBkSttlmDt: (*common.ISODate)(&settlementDate),
			SttlmInf: pacs_v08.SettlementInstruction7{
				SttlmMtd: "CLRG",
			},
		},
		CdtTrfTxInf: []pacs_v08.CreditTransferTransaction39{
			{
				PmtId: pacs_v08.PaymentIdentification7{
					InstrId:    &entryID,
					EndToEndId: entryID,
					TxId:       &entryID,
				},
				IntrBkSttlmAmt: pacs_v08.ActiveCurrencyAndAmount{
					Ccy:   common.ActiveCurrencyCode(entry.CurrencyCode),
					Value: amount,
				},
				IntrBkSttlmDt: (*common.ISODate)(&settlementDate),
				ChrgBr:        "SLEV",
				DbtrAgt: pacs_v08.BranchAndFinancialInstitutionIdentification6{
					FinInstnId: pacs_v08.FinancialInstitutionIdentification18{
						BICFI: &debtorBIC,
					},
				},
				Dbtr: pacs_v08.PartyIdentification135{
					Nm: &debtorName,
				},
				CdtrAgt: pacs_v08.BranchAndFinancialInstitutionIdentification6{
					FinInstnId: pacs_v08.FinancialInstitutionIdentification18{},
				},
				Cdtr: pacs_v08.PartyIdentification135{
					Nm: &creditorName,
				},
			},
		},
	}

	return doc, nil
}

// CreatePacs002 creates a pacs.002 payment status report for an entry.
func (s *SettlementService) CreatePacs002(entry *models.Entry, status string) (*pacs_v08.FIToFIPaymentStatusReportV08, error) {
	entryID := common.Max35Text(entry.ID)
	txStatus := pacs_v08.ExternalPaymentTransactionStatus1Code(status)

	doc := &pacs_v08.FIToFIPaymentStatusReportV08{
		GrpHdr: pacs_v08.GroupHeader53{
			MsgId:   common.Max35Text(uuid.New().String()),
			CreDtTm: common.ISODateTime(time.Now()),
		},
		TxInfAndSts: []pacs_v08.PaymentTransaction80{
			{
				OrgnlInstrId:    &entryID,
				OrgnlEndToEndId: &entryID,
				OrgnlTxId:       &entryID,
				TxSts:           &txStatus,
			},
		},
	}

	return doc, nil
}

func (s *SettlementService) sendToSettlement(doc any) error {
	xmlData, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal XML: %w", err)
	}

	// TODO: wire the clearing-network submission endpoint once one exists.
	log.Printf("[SETTLEMENT] sending pacs.008: %d bytes", len(xmlData))
	return nil
}
