package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const productsCollection = "products"

func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100).
		SetMinPoolSize(10)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}

type productDocument struct {
	ID       int64           `bson:"_id"`
	Name     string          `bson:"name"`
	IsActive bool            `bson:"is_active"`
	Sizes    []sizeDocument  `bson:"sizes"`
	Colors   []colorDocument `bson:"colors"`
}

type sizeDocument struct {
	Size          string               `bson:"size"`
	Price         primitive.Decimal128 `bson:"price"`
	StockQuantity int                  `bson:"stock_quantity"`
	IsAvailable   bool                 `bson:"is_available"`
}

type colorDocument struct {
	ID      int64  `bson:"id"`
	Name    string `bson:"name"`
	HexCode string `bson:"hex_code"`
}

// MongoProvider reads products stored as documents with embedded sizes and colors.
type MongoProvider struct {
	collection *mongo.Collection
}

func NewMongoProvider(db *mongo.Database) *MongoProvider {
	return &MongoProvider{collection: db.Collection(productsCollection)}
}

func (p *MongoProvider) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	var doc productDocument
	err := p.collection.FindOne(ctx, bson.M{"_id": id, "is_active": true}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return doc.toDomain()
}

func (p *MongoProvider) SizePrice(ctx context.Context, productID int64, size string) (decimal.Decimal, error) {
	var doc productDocument
	opts := options.FindOne().SetProjection(bson.M{"sizes": 1})
	err := p.collection.FindOne(ctx, bson.M{"_id": productID}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return decimal.Zero, ErrSizeNotFound
		}
		return decimal.Zero, fmt.Errorf("failed to get product sizes: %w", err)
	}

	for _, s := range doc.Sizes {
		if s.Size == size {
			price, err := decimal.NewFromString(s.Price.String())
			if err != nil {
				return decimal.Zero, fmt.Errorf("invalid price for size %s: %w", s.Size, err)
			}
			return price, nil
		}
	}
	return decimal.Zero, ErrSizeNotFound
}

// Upsert writes a product document. Used for seeding and tests.
func (p *MongoProvider) Upsert(ctx context.Context, product *domain.Product) error {
	doc, err := newProductDocument(product)
	if err != nil {
		return err
	}
	_, err = p.collection.ReplaceOne(ctx, bson.M{"_id": product.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert product: %w", err)
	}
	return nil
}

func (d productDocument) toDomain() (*domain.Product, error) {
	product := &domain.Product{ID: d.ID, Name: d.Name, IsActive: d.IsActive}
	for _, s := range d.Sizes {
		price, err := decimal.NewFromString(s.Price.String())
		if err != nil {
			return nil, fmt.Errorf("invalid price for size %s: %w", s.Size, err)
		}
		product.Sizes = append(product.Sizes, domain.ProductSize{
			Size:          s.Size,
			Price:         price,
			StockQuantity: s.StockQuantity,
			IsAvailable:   s.IsAvailable,
		})
	}
	sort.SliceStable(product.Sizes, func(i, j int) bool { return product.Sizes[i].Size < product.Sizes[j].Size })

	for _, c := range d.Colors {
		product.Colors = append(product.Colors, domain.Color{ID: c.ID, Name: c.Name, HexCode: c.HexCode})
	}
	return product, nil
}

func newProductDocument(p *domain.Product) (productDocument, error) {
	doc := productDocument{ID: p.ID, Name: p.Name, IsActive: p.IsActive}
	for _, s := range p.Sizes {
		price, err := primitive.ParseDecimal128(s.Price.String())
		if err != nil {
			return productDocument{}, fmt.Errorf("invalid price for size %s: %w", s.Size, err)
		}
		doc.Sizes = append(doc.Sizes, sizeDocument{
			Size:          s.Size,
			Price:         price,
			StockQuantity: s.StockQuantity,
			IsAvailable:   s.IsAvailable,
		})
	}
	for _, c := range p.Colors {
		doc.Colors = append(doc.Colors, colorDocument{ID: c.ID, Name: c.Name, HexCode: c.HexCode})
	}
	return doc, nil
}
