package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/campusflow/core/fee"
)

type (
	feeItemRecord struct {
		Name        string  `bson:"name"`
		Amount      float64 `bson:"amount"`
		Description string  `bson:"description"`
	}

	transactionRecord struct {
		ID            string    `bson:"id"`
		Amount        float64   `bson:"amount"`
		PaymentMethod string    `bson:"payment_method"`
		TransactionID string    `bson:"transaction_id"`
		Status        string    `bson:"status"`
		CreatedAt     time.Time `bson:"created_at"`
	}

	feeRecord struct {
		ID              primitive.ObjectID  `bson:"_id,omitempty"`
		UserID          string              `bson:"user_id"`
		TotalAmount     float64             `bson:"total_amount"`
		PaidAmount      float64             `bson:"paid_amount"`
		RemainingAmount float64             `bson:"remaining_amount"`
		Description     string              `bson:"description"`
		Structure       []feeItemRecord     `bson:"fee_structure"`
		Transactions    []transactionRecord `bson:"transactions"`
		CreatedAt       time.Time           `bson:"created_at"`
		UpdatedAt       time.Time           `bson:"updated_at"`
	}
)

func newTransactionRecord(tx fee.Transaction) transactionRecord {
	return transactionRecord{
		ID:            tx.ID,
		Amount:        tx.Amount,
		PaymentMethod: tx.PaymentMethod,
		TransactionID: tx.TransactionID,
		Status:        tx.Status,
		CreatedAt:     tx.CreatedAt,
	}
}

func (r feeRecord) toFee() fee.Fee {
	f := fee.Fee{
		ID:              r.ID.Hex(),
		UserID:          r.UserID,
		TotalAmount:     r.TotalAmount,
		PaidAmount:      r.PaidAmount,
		RemainingAmount: r.RemainingAmount,
		Description:     r.Description,
		Structure:       make([]fee.Item, 0, len(r.Structure)),
		Transactions:    make([]fee.Transaction, 0, len(r.Transactions)),
		CreatedAt:       r.CreatedAt.UTC(),
		UpdatedAt:       r.UpdatedAt.UTC(),
	}
	for _, it := range r.Structure {
		f.Structure = append(f.Structure, fee.Item{Name: it.Name, Amount: it.Amount, Description: it.Description})
	}
	for _, tx := range r.Transactions {
		f.Transactions = append(f.Transactions, fee.Transaction{
			ID:            tx.ID,
			Amount:        tx.Amount,
			PaymentMethod: tx.PaymentMethod,
			TransactionID: tx.TransactionID,
			Status:        tx.Status,
			CreatedAt:     tx.CreatedAt.UTC(),
		})
	}
	return f
}

type feeRepository struct {
	coll *mongo.Collection
}

var _ fee.Repository = (*feeRepository)(nil)

func NewFeeRepository(db *DB) fee.Repository {
	return &feeRepository{coll: db.collection(feesCollection)}
}

func (repo *feeRepository) EnsureFee(ctx context.Context, f fee.Fee) (fee.Fee, error) {
	structure := make([]feeItemRecord, 0, len(f.Structure))
	for _, it := range f.Structure {
		structure = append(structure, feeItemRecord{Name: it.Name, Amount: it.Amount, Description: it.Description})
	}
	update := bson.M{"$setOnInsert": bson.M{
		"total_amount":     f.TotalAmount,
		"paid_amount":      f.PaidAmount,
		"remaining_amount": f.RemainingAmount,
		"description":      f.Description,
		"fee_structure":    structure,
		"transactions":     bson.A{},
		"created_at":       f.CreatedAt,
		"updated_at":       f.UpdatedAt,
	}}
	opts := options.Update().SetUpsert(true)
	if _, err := repo.coll.UpdateOne(ctx, bson.M{"user_id": f.UserID}, update, opts); err != nil && !isDuplicateKey(err) {
		return fee.Fee{}, errors.Wrap(err, "ensuring fee")
	}
	return repo.GetFeeByUserID(ctx, f.UserID)
}

func (repo *feeRepository) GetFeeByUserID(ctx context.Context, userID string) (fee.Fee, error) {
	var rec feeRecord
	if err := repo.coll.FindOne(ctx, bson.M{"user_id": userID}).Decode(&rec); err != nil {
		if isNoDocuments(err) {
			return fee.Fee{}, fee.ErrNotFound
		}
		return fee.Fee{}, errors.Wrap(err, "finding fee")
	}
	return rec.toFee(), nil
}

// AddPayment is a single conditional update: the filter only matches while the remaining amount
// covers the payment, and the pipeline derives the new amounts from the stored ones.
func (repo *feeRepository) AddPayment(ctx context.Context, userID string, tx fee.Transaction, now time.Time) (fee.Fee, error) {
	filter := bson.M{
		"user_id":          userID,
		"remaining_amount": bson.M{"$gte": tx.Amount},
	}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "paid_amount", Value: bson.M{"$round": bson.A{bson.M{"$add": bson.A{"$paid_amount", tx.Amount}}, 2}}},
			{Key: "transactions", Value: bson.M{"$concatArrays": bson.A{
				bson.M{"$ifNull": bson.A{"$transactions", bson.A{}}},
				bson.A{bson.M{"$literal": newTransactionRecord(tx)}},
			}}},
			{Key: "updated_at", Value: now},
		}}},
		{{Key: "$set", Value: bson.D{
			{Key: "remaining_amount", Value: bson.M{"$round": bson.A{bson.M{"$subtract": bson.A{"$total_amount", "$paid_amount"}}, 2}}},
		}}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var rec feeRecord
	err := repo.coll.FindOneAndUpdate(ctx, filter, pipeline, opts).Decode(&rec)
	if err == nil {
		return rec.toFee(), nil
	}
	if !isNoDocuments(err) {
		return fee.Fee{}, errors.Wrap(err, "adding payment")
	}

	// nothing matched: either there is no fee or the balance is too low
	if _, err := repo.GetFeeByUserID(ctx, userID); err != nil {
		return fee.Fee{}, err
	}
	return fee.Fee{}, fee.ErrOverpayment
}
